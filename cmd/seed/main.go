// Seeds the lookup tables (roles, submission statuses) and an initial
// masteradmin account.
// cmd/seed/main.go
package main

import (
	"log"
	"os"
	"time"

	"kyc-tracking-api/config"
	"kyc-tracking-api/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var roles = []models.Role{
	{RoleID: models.RoleMarketer, Role: "marketer"},
	{RoleID: models.RoleAdmin, Role: "admin"},
	{RoleID: models.RoleSuperAdmin, Role: "superadmin"},
	{RoleID: models.RoleMasterAdmin, Role: "masteradmin"},
}

var statuses = []models.SubmissionStatus{
	{StatusCode: models.StatusPendingAdminReview, StatusName: "Pending admin review"},
	{StatusCode: models.StatusAdminVerified, StatusName: "Verified by admin"},
	{StatusCode: models.StatusPendingSuperAdminReview, StatusName: "Pending superadmin review"},
	{StatusCode: models.StatusSuperAdminVerified, StatusName: "Verified by superadmin"},
	{StatusCode: models.StatusPendingMasterAdminApproval, StatusName: "Pending masteradmin approval"},
	{StatusCode: models.StatusApproved, StatusName: "Approved"},
	{StatusCode: models.StatusRejected, StatusName: "Rejected"},
}

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize database
	config.InitDB()

	if err := config.DB.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.SubmissionStatus{},
		&models.Submission{},
		&models.SubmissionForm{},
		&models.SubmissionStatusHistory{},
		&models.SubmissionReview{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("Migration failed:", err)
	}

	now := time.Now()
	for _, role := range roles {
		role.CreateAt = &now
		if err := config.DB.Where("role_id = ?", role.RoleID).FirstOrCreate(&role).Error; err != nil {
			log.Fatal("Failed to seed role:", err)
		}
	}

	for _, status := range statuses {
		status.CreateAt = &now
		if err := config.DB.Where("status_code = ?", status.StatusCode).FirstOrCreate(&status).Error; err != nil {
			log.Fatal("Failed to seed status:", err)
		}
	}

	email := os.Getenv("SEED_MASTERADMIN_EMAIL")
	password := os.Getenv("SEED_MASTERADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("SEED_MASTERADMIN_EMAIL/PASSWORD not set, skipping admin account")
		log.Println("Seeding completed!")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := models.User{
		FirstName: "Master",
		LastName:  "Admin",
		Email:     email,
		Password:  string(hashed),
		RoleID:    models.RoleMasterAdmin,
		CreateAt:  &now,
	}
	if err := config.DB.Where("email = ?", email).FirstOrCreate(&admin).Error; err != nil {
		log.Fatal("Failed to seed masteradmin:", err)
	}

	log.Println("Seeding completed!")
}
