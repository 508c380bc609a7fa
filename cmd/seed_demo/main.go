package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hazglobal/hazmatgo/internal/config"
	"github.com/hazglobal/hazmatgo/internal/database"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/store"
	"github.com/hazglobal/hazmatgo/internal/utils"
)

// Seeds demo accounts, drivers and bookings for local development.
func main() {
	fmt.Println("🌱 Hazmat Dispatch Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	st := store.NewPostgresStore(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var shipmentCount int64
	db.Model(&models.Shipment{}).Where("reference LIKE ?", "HAZTEST%").Count(&shipmentCount)
	if shipmentCount > 0 {
		fmt.Printf("⚠️  %d demo shipments already present. Clear them first? (y/N): ", shipmentCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		if err := st.DeleteTestData(context.Background(), "HAZTEST"); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
		fmt.Println("✅ Old demo data cleared")
	}

	ctx := context.Background()

	fmt.Println("👤 Creating demo accounts...")
	opsHash, _ := utils.HashPassword("ops-demo-pass")
	driverHash, _ := utils.HashPassword("driver-demo-pass")
	driverCode := "DRVJNB01"
	accounts := []models.UserAuth{
		{Username: "demo-ops", Email: "demo-ops@hazglobal.com", Password: opsHash, Role: "ops", Branch: "JNB", IsActive: true},
		{Username: "demo-driver", Email: "demo-driver@hazglobal.com", Password: driverHash, Role: "driver", Branch: "JNB", DriverCode: &driverCode, IsActive: true},
	}
	for i := range accounts {
		if err := db.Where("email = ?", accounts[i].Email).FirstOrCreate(&accounts[i]).Error; err != nil {
			log.Printf("⚠️ Account %s: %v", accounts[i].Email, err)
		}
	}

	fmt.Println("🚚 Registering demo drivers...")
	if err := st.UpsertDriverLocation(ctx, driverCode, -26.2041, 28.0473); err != nil {
		log.Printf("⚠️ Driver location: %v", err)
	}

	fmt.Println("📦 Creating demo shipments...")
	shipments := []models.Shipment{
		{
			Reference:       "HAZTEST0001",
			SecondaryRef:    "HMJ-9001",
			Kind:            models.KindLocal,
			Branch:          "JNB",
			Company:         "Acme Chemicals",
			Operator:        "demo-ops",
			Status:          models.StatusPending,
			PickupAddress:   "10 Industrial Rd, Germiston",
			DeliveryAddress: "55 Main Reef Rd, Roodepoort",
		},
		{
			Reference:       "HAZTEST0002",
			SecondaryRef:    "HMJ-9002",
			Kind:            models.KindImport,
			Branch:          "CPT",
			Company:         "Coastal Labs",
			Operator:        "demo-ops",
			Status:          models.StatusPending,
			DeliveryAddress: "12 Harbour Rd, Cape Town",
		},
		{
			Reference:     "HAZTEST0003",
			SecondaryRef:  "HMJ-9003",
			Kind:          models.KindExport,
			Branch:        "KZN",
			Company:       "Umhlanga Pharma",
			Operator:      "demo-ops",
			Status:        models.StatusPending,
			PickupAddress: "3 Chartwell Dr, Umhlanga",
		},
	}
	for i := range shipments {
		if err := st.CreateShipment(ctx, &shipments[i]); err != nil {
			log.Printf("⚠️ Shipment %s: %v", shipments[i].Reference, err)
			continue
		}
		fmt.Printf("   • %s (%s, %s)\n", shipments[i].Reference, shipments[i].Kind, shipments[i].Branch)
	}

	fmt.Println()
	fmt.Println("✅ Demo data ready. Log in as demo-ops@hazglobal.com / ops-demo-pass")
}
