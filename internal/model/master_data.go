package model

import (
	"mdmportal/pkg/attribute"

	"gorm.io/datatypes"
)

// Material is a single stock item.
type Material struct {
	MatCode     string `gorm:"primaryKey;type:varchar(50)" json:"mat_code"`
	MatDesc     string `gorm:"type:text" json:"mat_desc"`
	MgrpCode    string `gorm:"type:varchar(50);index" json:"mgrp_code"`
	MatTypeCode string `gorm:"type:varchar(50);index" json:"mat_type_code"`
	Uom         string `gorm:"type:varchar(20)" json:"uom"`
	AuditFields `gorm:"embedded"`
}

// MaterialGroup groups materials and belongs to a supergroup.
type MaterialGroup struct {
	MgrpCode      string `gorm:"primaryKey;type:varchar(50)" json:"mgrp_code"`
	MgrpShortname string `gorm:"type:varchar(255)" json:"mgrp_shortname"`
	MgrpLongname  string `gorm:"type:text" json:"mgrp_longname"`
	SgrpCode      string `gorm:"type:varchar(50);index" json:"sgrp_code"`
	Notes         string `gorm:"type:text" json:"notes"`
	SearchText    string `gorm:"type:text" json:"search_text"`
	AuditFields   `gorm:"embedded"`
}

// MaterialType classifies materials.
type MaterialType struct {
	MatTypeCode string `gorm:"primaryKey;type:varchar(50)" json:"mat_type_code"`
	MatTypeDesc string `gorm:"type:text" json:"mat_type_desc"`
	AuditFields `gorm:"embedded"`
}

// MaterialAttribute holds the attribute definitions of one material group.
type MaterialAttribute struct {
	MgrpCode    string                            `gorm:"primaryKey;type:varchar(50)" json:"mgrp_code"`
	Attributes  datatypes.JSONType[attribute.Set] `gorm:"type:jsonb" json:"attributes"`
	AuditFields `gorm:"embedded"`
}

// EmailDomain is a domain allowed for registration.
type EmailDomain struct {
	DomainName  string `gorm:"primaryKey;type:varchar(255)" json:"domain_name"`
	AuditFields `gorm:"embedded"`
}

// Supergroup groups material groups by department.
type Supergroup struct {
	SgrpCode    string `gorm:"primaryKey;type:varchar(50)" json:"sgrp_code"`
	SgrpName    string `gorm:"type:varchar(255)" json:"sgrp_name"`
	DeptName    string `gorm:"type:varchar(255)" json:"dept_name"`
	AuditFields `gorm:"embedded"`
}

// ValidationList is a named list of permitted values.
type ValidationList struct {
	Listname    string                      `gorm:"primaryKey;type:varchar(100)" json:"listname"`
	Listvalue   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"listvalue"`
	AuditFields `gorm:"embedded"`
}
