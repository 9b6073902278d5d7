package config

import (
	"fmt"
	model "questboard/repository"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE questboard.approval_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED')`,
	`CREATE TYPE questboard.task_status AS ENUM ('DRAFT', 'PUBLISHED')`,
	`CREATE TYPE questboard.discount_type AS ENUM ('PERCENTAGE', 'FIXED')`,
}

func InitDB(host, port, user, password, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "questboard.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS questboard`)
	if x.Error != nil {
		return nil, x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return nil, x.Error
		}
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.Submission{},
		&model.PromoCode{},
		&model.Category{},
		&model.CategoryAccess{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
