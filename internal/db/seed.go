package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/store"
)

// Demo account created by Seed.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo1234"
)

// Seed creates the demo account with a profile, a client, a project and a
// draft invoice. It does nothing when the demo user already exists.
func Seed(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", DemoEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: DemoEmail, Name: "Demo Freelancer", Password: string(hash)}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		vat := decimal.NewNullDecimal(decimal.NewFromInt(20))
		profile := models.BusinessProfile{UserID: user.ID, BusinessName: "Demo Studio", DefaultTaxRate: vat}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("seed profile: %w", err)
		}
		client := models.Client{UserID: user.ID, Name: "Acme Ltd", ContactPerson: "Jo Bloggs", Email: "jo@acme.test", City: "London", Country: "United Kingdom"}
		if err := tx.Create(&client).Error; err != nil {
			return fmt.Errorf("seed client: %w", err)
		}
		project := models.Project{
			UserID:     user.ID,
			ClientID:   client.ID,
			Name:       "Website redesign",
			RateType:   models.RateTypeHourly,
			RateAmount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("seed project: %w", err)
		}

		now := time.Now()
		totals, items, err := billing.ComputeTotals([]models.InvoiceItem{
			{Description: "Design work", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), Taxable: true},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		}, vat)
		if err != nil {
			return err
		}
		number, err := store.New(tx).NextInvoiceNumber(context.Background(), now.Year())
		if err != nil {
			return fmt.Errorf("seed invoice number: %w", err)
		}
		inv := models.Invoice{
			UserID:        user.ID,
			ProjectID:     &project.ID,
			ClientID:      &client.ID,
			InvoiceNumber: number,
			IssueDate:     now,
			DueDate:       now.AddDate(0, 0, 30),
			TaxRate:       vat,
		}
		totals.Apply(&inv)
		if err := tx.Omit("Items", "Payments").Create(&inv).Error; err != nil {
			return fmt.Errorf("seed invoice: %w", err)
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("seed items: %w", err)
		}
		log.Printf("[DB] seeded demo account %s", DemoEmail)
		return nil
	})
}
