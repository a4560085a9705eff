// server/internal/database/seeder.go
package database

import (
	"context"
	"log"

	"freight-exchange-api-server/internal/auth"
	"freight-exchange-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedAdmin creates the platform admin account if it does not exist yet.
func SeedAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	adminEmail := "admin@example.com"

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("adminpassword")
	if err != nil {
		return err
	}

	admin := models.User{
		UserID:   "USR-ADMIN",
		Email:    adminEmail,
		Name:     "Platform Admin",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		Status:   "active",
	}
	if _, err := userCollection.InsertOne(context.Background(), admin); err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}

// SeedCatalog loads the Serbian city and corridor catalog used by the route
// suggestion engine. Idempotent: skipped when locations already exist.
func SeedCatalog(db *mongo.Database) error {
	locationCollection := db.Collection("locations")

	count, err := locationCollection.CountDocuments(context.Background(), bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Route catalog already seeded. Skipped.")
		return nil
	}

	log.Println("Seeding route catalog...")

	locations := []models.Location{
		{Name: "Beograd", PostalCode: "11000", Region: "Grad Beograd", Latitude: 44.8125, Longitude: 20.4612, IsMajor: true},
		{Name: "Novi Sad", PostalCode: "21000", Region: "Južna Bačka", Latitude: 45.2671, Longitude: 19.8335, IsMajor: true},
		{Name: "Niš", PostalCode: "18000", Region: "Nišava", Latitude: 43.3209, Longitude: 21.8958, IsMajor: true},
		{Name: "Kragujevac", PostalCode: "34000", Region: "Šumadija", Latitude: 44.0128, Longitude: 20.9114, IsMajor: true},
		{Name: "Subotica", PostalCode: "24000", Region: "Severna Bačka", Latitude: 46.1005, Longitude: 19.6651, IsMajor: false},
		{Name: "Zrenjanin", PostalCode: "23000", Region: "Srednji Banat", Latitude: 45.3836, Longitude: 20.3819, IsMajor: false},
		{Name: "Čačak", PostalCode: "32000", Region: "Moravica", Latitude: 43.8914, Longitude: 20.3497, IsMajor: false},
		{Name: "Kruševac", PostalCode: "37000", Region: "Rasina", Latitude: 43.5800, Longitude: 21.3339, IsMajor: false},
		{Name: "Leskovac", PostalCode: "16000", Region: "Jablanica", Latitude: 42.9981, Longitude: 21.9461, IsMajor: false},
		{Name: "Pančevo", PostalCode: "26000", Region: "Južni Banat", Latitude: 44.8708, Longitude: 20.6403, IsMajor: false},
	}
	locationDocs := make([]interface{}, len(locations))
	for i, loc := range locations {
		locationDocs[i] = loc
	}
	if _, err := locationCollection.InsertMany(context.Background(), locationDocs); err != nil {
		return err
	}

	corridors := []models.Corridor{
		{Name: "A1 Beograd-Niš", Code: "A1", Class: models.CorridorHighway, From: "Beograd", To: "Niš", DistanceKM: 237, TollRoad: true, Priority: 1},
		{Name: "A1 Beograd-Novi Sad", Code: "A1", Class: models.CorridorHighway, From: "Beograd", To: "Novi Sad", DistanceKM: 94, TollRoad: true, Priority: 1},
		{Name: "A1 Niš-Leskovac", Code: "A1", Class: models.CorridorHighway, From: "Niš", To: "Leskovac", DistanceKM: 45, TollRoad: true, Priority: 1},
		{Name: "A2 Beograd-Čačak", Code: "A2", Class: models.CorridorHighway, From: "Beograd", To: "Čačak", DistanceKM: 144, TollRoad: true, Priority: 1},
		{Name: "M1 Beograd-Novi Sad stari put", Code: "M1", Class: models.CorridorMainRoad, From: "Beograd", To: "Novi Sad", DistanceKM: 84, TollRoad: false, Priority: 2},
		{Name: "M22 Novi Sad-Subotica", Code: "M22", Class: models.CorridorMainRoad, From: "Novi Sad", To: "Subotica", DistanceKM: 108, TollRoad: false, Priority: 2},
		{Name: "M24 Beograd-Zrenjanin", Code: "M24", Class: models.CorridorMainRoad, From: "Beograd", To: "Zrenjanin", DistanceKM: 75, TollRoad: false, Priority: 2},
		{Name: "M23 Beograd-Kragujevac", Code: "M23", Class: models.CorridorMainRoad, From: "Beograd", To: "Kragujevac", DistanceKM: 140, TollRoad: false, Priority: 2},
		{Name: "M5 Kragujevac-Kruševac", Code: "M5", Class: models.CorridorRegional, From: "Kragujevac", To: "Kruševac", DistanceKM: 80, TollRoad: false, Priority: 3},
		{Name: "M25 Niš-Kruševac", Code: "M25", Class: models.CorridorRegional, From: "Niš", To: "Kruševac", DistanceKM: 70, TollRoad: false, Priority: 3},
		{Name: "R101 Beograd-Pančevo", Code: "R101", Class: models.CorridorLocal, From: "Beograd", To: "Pančevo", DistanceKM: 18, TollRoad: false, Priority: 4},
	}
	corridorDocs := make([]interface{}, len(corridors))
	for i, c := range corridors {
		corridorDocs[i] = c
	}
	if _, err := db.Collection("corridors").InsertMany(context.Background(), corridorDocs); err != nil {
		return err
	}

	log.Printf("Route catalog seeded: %d locations, %d corridors.", len(locations), len(corridors))
	return nil
}
