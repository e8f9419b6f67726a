// Package main seeds reference data: the standard fee types, an admin portal
// user and a demo merchant with settings.
package main

import (
	"context"
	"log"

	"payclear/internal/config"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/auth"
)

var feeTypes = []models.FeeType{
	{Key: models.FeeKeyMDR, Name: "MDR Fee", FrequencyType: models.FrequencyTransaction, IsPercentage: true},
	{Key: models.FeeKeyTransaction, Name: "Transaction Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyDeclined, Name: "Declined Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyRefund, Name: "Refund Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyChargeback, Name: "Chargeback Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyPayout, Name: "Payout Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyVisaHighRisk, Name: "Visa High Risk Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyMastercardHighRisk, Name: "Mastercard High Risk Fee", FrequencyType: models.FrequencyTransaction},
	{Key: models.FeeKeyMonthly, Name: "Monthly Fee", FrequencyType: models.FrequencyMonthly},
	{Key: models.FeeKeySetup, Name: "Setup Fee", FrequencyType: models.FrequencyOneTime},
}

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	for _, ft := range feeTypes {
		var existing models.FeeType
		err := repositories.DB.Where("key = ?", ft.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if err := repositories.DB.Create(&ft).Error; err != nil {
			log.Fatalf("failed to seed fee type %s: %v", ft.Key, err)
		}
		log.Printf("seeded fee type %s", ft.Key)
	}

	adminEmail := config.GetEnv("SEED_ADMIN_EMAIL", "admin@payclear.local")
	userRepo := repositories.NewUserRepository(repositories.DB)
	if _, err := userRepo.GetByEmail(context.Background(), adminEmail); err != nil {
		hash, err := auth.HashPassword(config.GetEnv("SEED_ADMIN_PASSWORD", "change-me"))
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}
		admin := &models.User{
			Email:    adminEmail,
			Password: hash,
			Name:     "Administrator",
			Role:     models.RoleAdmin,
		}
		if err := userRepo.Create(context.Background(), admin); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
		log.Printf("seeded admin user %s", adminEmail)
	}

	if config.GetEnv("SEED_DEMO_MERCHANT", "false") != "true" {
		return
	}

	merchantRepo := repositories.NewMerchantRepository(repositories.DB)
	merchant := &models.Merchant{
		AccountID: 1001,
		Name:      "Demo Merchant Ltd",
		Email:     "merchant@payclear.local",
		Country:   "CY",
		Status:    "active",
	}
	if err := merchantRepo.Create(context.Background(), merchant); err != nil {
		log.Fatalf("failed to seed demo merchant: %v", err)
	}
	settings := &models.MerchantSetting{
		MerchantID:               merchant.ID,
		RollingReservePercentage: 1000, // 10.00%
		HoldingPeriodDays:        180,
		MDRPercentage:            250, // 2.50%
		TransactionFee:           35,  // 0.35
		MonthlyFee:               15000,
		ExchangeRateMarkup:       "1.01",
	}
	if err := merchantRepo.CreateSettings(context.Background(), settings); err != nil {
		log.Fatalf("failed to seed merchant settings: %v", err)
	}
	log.Printf("seeded demo merchant %d", merchant.ID)
}
