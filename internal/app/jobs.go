package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talkincode/toughrent/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", func() {
		a.SchedReturnReminderTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		retention := a.configManager.GetInt64("rental", "OprLogRetentionDays")
		if retention <= 0 {
			retention = 365
		}
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*time.Duration(retention))).Delete(domain.SysOprLog{})
	})

	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedReturnReminderTask mails every overdue ongoing order's owner.
func (a *Application) SchedReturnReminderTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	overdue, err := a.orders.Overdue(time.Now())
	if err != nil {
		zap.L().Error("query overdue orders failed", zap.Error(err))
		return
	}
	for i := range overdue {
		order := overdue[i]
		var user domain.SysUser
		if err := a.gormDB.Where("id = ?", order.UserID).First(&user).Error; err != nil {
			zap.L().Warn("reminder skipped, user not found",
				zap.Int64("order_id", order.ID), zap.Error(err))
			continue
		}
		a.mailer.ReturnReminder(&user, &order)
	}
	if len(overdue) > 0 {
		zap.L().Info("return reminders sent", zap.Int("count", len(overdue)))
	}
}
