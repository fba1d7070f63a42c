package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/models"
)

// Names of the system profiles created by SeedProfiles.
const (
	ProfileAdmin   = "admin"
	ProfileManager = "manager"
	ProfileCashier = "cashier"
)

var crud = []string{"*", "list", "view", "create", "update", "delete"}

// resourceActions lists every permission the API checks.
var resourceActions = map[string][]string{
	"product":          append(crud, "stock"),
	"category":         crud,
	"supplier":         crud,
	"client":           crud,
	"pos":              {"*", "view", "create", "update", "delete"},
	"order":            append(crud, "void"),
	"invoice":          append(crud, "finalize", "pay"),
	"quote":            append(crud, "convert"),
	"expense":          crud,
	"expense_category": crud,
	"report":           {"*", "view"},
	"company":          {"*", "view", "update"},
	"user":             {"*", "list", "view", "update"},
	"profile":          crud,
}

type seedProfile struct {
	Name        string
	Description string
	Permissions []string
}

var systemProfiles = []seedProfile{
	{ProfileAdmin, "Full access", []string{"*:*"}},
	{ProfileManager, "Runs the shop: catalog, sales, invoicing, expenses and reports", []string{
		"product:*", "category:*", "supplier:*", "client:*", "pos:*", "order:*",
		"invoice:*", "quote:*", "expense:*", "expense_category:*", "report:*", "company:view",
	}},
	{ProfileCashier, "Point of sale", []string{
		"pos:*", "order:create", "order:list", "order:view",
		"product:list", "product:view", "category:list",
		"client:list", "client:view", "client:create",
	}},
}

var defaultExpenseCategories = []string{"Rent", "Utilities", "Salaries", "Supplies", "Transport", "Marketing", "Other"}

// SeedPermissions creates every resource:action permission, plus "*:*".
func SeedPermissions(gdb *gorm.DB) error {
	upsert := func(res, act string) error {
		perm := models.Permission{ResourceType: res, Action: act}
		if act == "*" {
			perm.Description = "All " + res + " actions"
		}
		return gdb.Where("resource_type = ? AND action = ?", res, act).FirstOrCreate(&perm).Error
	}
	if err := upsert("*", "*"); err != nil {
		return err
	}
	for res, actions := range resourceActions {
		for _, act := range actions {
			if err := upsert(res, act); err != nil {
				return fmt.Errorf("seed permission %s:%s: %w", res, act, err)
			}
		}
	}
	return nil
}

// SeedProfiles creates the system profiles and syncs their permissions.
func SeedProfiles(gdb *gorm.DB) error {
	if err := SeedPermissions(gdb); err != nil {
		return err
	}
	for _, sp := range systemProfiles {
		profile := models.Profile{Name: sp.Name, Description: sp.Description, IsSystem: true}
		if err := gdb.Where("name = ?", sp.Name).FirstOrCreate(&profile).Error; err != nil {
			return err
		}
		perms := make([]models.Permission, 0, len(sp.Permissions))
		for _, code := range sp.Permissions {
			res, act, _ := strings.Cut(code, ":")
			var perm models.Permission
			if err := gdb.Where("resource_type = ? AND action = ?", res, act).First(&perm).Error; err != nil {
				return fmt.Errorf("profile %s: permission %s: %w", sp.Name, code, err)
			}
			perms = append(perms, perm)
		}
		if err := gdb.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// SeedExpenseCategories creates the default expense categories.
func SeedExpenseCategories(gdb *gorm.DB) error {
	for _, name := range defaultExpenseCategories {
		var existing models.ExpenseCategory
		err := gdb.Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := gdb.Create(&models.ExpenseCategory{Name: name}).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedCompany creates the company row if none exists.
func SeedCompany(gdb *gorm.DB, name, currency string) error {
	var count int64
	if err := gdb.Model(&models.Company{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return gdb.Create(&models.Company{Name: name, Currency: currency, PaymentTermsDays: 30}).Error
}

// Seed runs every seeder. It is safe to run repeatedly.
func Seed(gdb *gorm.DB, companyName, currency string) error {
	if err := SeedProfiles(gdb); err != nil {
		return fmt.Errorf("seed profiles: %w", err)
	}
	if err := SeedExpenseCategories(gdb); err != nil {
		return fmt.Errorf("seed expense categories: %w", err)
	}
	if err := SeedCompany(gdb, companyName, currency); err != nil {
		return fmt.Errorf("seed company: %w", err)
	}
	return nil
}
