// seed-admin creates or updates the admin console user (username: truebalanceAdmin).
// If the database has no business yet, a demo business is created first so the
// user has a tenant to attach to.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/models"
	"github.com/algocode/truebalance_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "truebalanceAdmin"
	adminPassword = "Tru3balance@dmin"
	adminName     = "TrueBalance Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var biz models.Business
	err := db.WithContext(ctx).Model(&models.Business{}).First(&biz).Error
	if err == gorm.ErrRecordNotFound {
		created, createErr := models.CreateBusiness(ctx, &models.NewBusiness{Name: "TrueBalance Demo"})
		if createErr != nil {
			fmt.Fprintf(os.Stderr, "failed to create demo business: %v\n", createErr)
			os.Exit(1)
		}
		biz = *created
		fmt.Printf("created demo business %s (%s)\n", biz.Name, biz.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup business: %v\n", err)
		os.Exit(1)
	}

	businessID := biz.ID.String()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		_, createErr := models.CreateUser(ctx, &models.NewUser{
			BusinessId: businessID,
			Username:   adminUsername,
			Name:       adminName,
			Password:   adminPassword,
			Role:       "admin",
		})
		if createErr != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", createErr)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q for business %s\n", adminUsername, businessID)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	updates := map[string]interface{}{
		"password":  string(hashed),
		"name":      adminName,
		"is_active": true,
		"role":      "admin",
	}
	if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %q (id %d)\n", adminUsername, existing.ID)
}
