package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/config"
	"github.com/garyjia/invoice-ledger/internal/container"
	httpapi "github.com/garyjia/invoice-ledger/internal/interfaces/http"
	"github.com/garyjia/invoice-ledger/internal/invoice"
	"github.com/garyjia/invoice-ledger/pkg/utils"
)

type demoInvoice struct {
	input    invoice.CreateInvoiceInput
	payments []float64
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	userID := flag.String("user", "demo-user", "owner of the seeded invoices")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewDevelopmentLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := seed(context.Background(), cfg, *userID, logger); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	token, err := httpapi.NewAuthenticator(cfg.Auth.JWTSecret).IssueToken(*userID, cfg.Auth.DevTokenTTL)
	if err != nil {
		logger.Fatal("Failed to issue development token", zap.Error(err))
	}
	fmt.Printf("\nDevelopment token for %s (valid %s):\n\n%s\n", *userID, cfg.Auth.DevTokenTTL, token)
}

func seed(ctx context.Context, cfg *config.Config, userID string, logger *zap.Logger) error {
	cc := cfg.ToContainerConfig()

	dbBundle, err := container.ProvideDatabase(&cc.Database, logger)
	if err != nil {
		return err
	}
	defer dbBundle.DB.Close()

	repos, err := container.ProvideRepositories(dbBundle.DB, logger)
	if err != nil {
		return err
	}

	services, err := container.ProvideServices(&container.ServiceDeps{
		Repos:     repos,
		TxManager: dbBundle.TransactionMgr,
		Report:    &cc.Report,
		Payment:   &cc.Payment,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	for _, demo := range demoInvoices(time.Now().UTC()) {
		detail, err := services.Invoice.CreateInvoice(ctx, userID, demo.input)
		if errors.Is(err, invoice.ErrDuplicateInvoiceNumber) {
			logger.Info("Invoice already seeded", zap.String("invoice_number", demo.input.InvoiceNumber))
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", demo.input.InvoiceNumber, err)
		}

		for _, amount := range demo.payments {
			if _, err := services.Payment.AddPayment(ctx, userID, detail.ID, invoice.PaymentInput{Amount: &amount}); err != nil {
				return fmt.Errorf("pay %s: %w", demo.input.InvoiceNumber, err)
			}
		}

		logger.Info("Seeded invoice",
			zap.String("invoice_number", demo.input.InvoiceNumber),
			zap.Int64("id", detail.ID),
			zap.Float64("total", detail.Total))
	}
	return nil
}

func demoInvoices(now time.Time) []demoInvoice {
	date := func(days int) string { return now.AddDate(0, 0, days).Format("2006-01-02") }
	rate := func(v float64) *float64 { return &v }

	return []demoInvoice{
		{
			input: invoice.CreateInvoiceInput{
				InvoiceNumber: "DEMO-1001",
				CustomerName:  "Acme Corporation",
				IssueDate:     date(-45),
				DueDate:       date(-15),
				Currency:      "USD",
				TaxRate:       rate(8.5),
				LineItems: []invoice.LineItemInput{
					{Description: "Website redesign", Quantity: 1, UnitPrice: 2400},
					{Description: "Hosting (monthly)", Quantity: 3, UnitPrice: 49.99},
				},
			},
		},
		{
			input: invoice.CreateInvoiceInput{
				InvoiceNumber: "DEMO-1002",
				CustomerName:  "Globex GmbH",
				IssueDate:     date(-10),
				DueDate:       date(20),
				Currency:      "EUR",
				TaxRate:       rate(19),
				LineItems: []invoice.LineItemInput{
					{Description: "Consulting hours", Quantity: 12, UnitPrice: 95},
				},
			},
			payments: []float64{500},
		},
		{
			input: invoice.CreateInvoiceInput{
				InvoiceNumber: "DEMO-1003",
				CustomerName:  "Initech Ltd",
				IssueDate:     date(-30),
				DueDate:       date(-1),
				Currency:      "GBP",
				AmountPaid:    rate(100),
				LineItems: []invoice.LineItemInput{
					{Description: "Support retainer", Quantity: 1, UnitPrice: 300},
				},
			},
			payments: []float64{200},
		},
	}
}
