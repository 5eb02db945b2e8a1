package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	&UserProfile{},
	&SysOprLog{},
	// Catalog
	&Category{},
	&Product{},
	&Komplet{},
	// Rental workflow
	&Order{},
	&BorrowHistory{},
	// Repair workflow
	&Serwis{},
	&Service{},
}
