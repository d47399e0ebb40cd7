package database

import (
	"fmt"
	"log"

	"bardev-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type defaultUser struct {
	ID   string
	Name string
	Role models.UserRole
	PIN  string
}

var defaultUsers = []defaultUser{
	{ID: "u1", Name: "Admin Principal", Role: models.RoleAdmin, PIN: "1234"},
	{ID: "u2", Name: "Juan", Role: models.RoleWaiter, PIN: "1111"},
	{ID: "u3", Name: "Pedro", Role: models.RoleWaiter, PIN: "2222"},
	{ID: "u4", Name: "Chef Mario", Role: models.RoleCook, PIN: "3333"},
	{ID: "u5", Name: "Ana (Bar)", Role: models.RoleBartender, PIN: "4444"},
}

var defaultMenu = []models.MenuEntry{
	{ID: "1", Name: "Hamburguesa Clásica", Price: 120, Category: models.CategoryFood, Recipe: []models.RecipeIngredient{{MaterialID: "m1", Amount: 1}, {MaterialID: "m2", Amount: 1}}},
	{ID: "2", Name: "Papas Fritas", Price: 60, Category: models.CategorySnack},
	{ID: "3", Name: "Hot Dog", Price: 50, Category: models.CategoryFood, Recipe: []models.RecipeIngredient{{MaterialID: "m2", Amount: 1}, {MaterialID: "m3", Amount: 1}}},
	{ID: "4", Name: "Cerveza Nacional", Price: 45, Category: models.CategoryDrink, Recipe: []models.RecipeIngredient{{MaterialID: "m4", Amount: 1}}},
	{ID: "5", Name: "Refresco 600ml", Price: 30, Category: models.CategoryDrink, Recipe: []models.RecipeIngredient{{MaterialID: "m5", Amount: 1}}},
	{ID: "6", Name: "Nachos con Queso", Price: 85, Category: models.CategorySnack},
	{ID: "7", Name: "Margarita", Price: 110, Category: models.CategoryDrink},
}

var defaultInventory = []models.Material{
	{ID: "m1", Name: "Carne (pzs)", Quantity: 50, Unit: "pzs", IsAuto: true, MinAlert: 10},
	{ID: "m2", Name: "Pan (pzs)", Quantity: 60, Unit: "pzs", IsAuto: true, MinAlert: 10},
	{ID: "m3", Name: "Salchicha (pzs)", Quantity: 40, Unit: "pzs", IsAuto: true, MinAlert: 10},
	{ID: "m4", Name: "Cerveza (botella)", Quantity: 120, Unit: "u", IsAuto: true, MinAlert: 24},
	{ID: "m5", Name: "Refresco (botella)", Quantity: 48, Unit: "u", IsAuto: true, MinAlert: 12},
	{ID: "v1", Name: "Jitomate", Quantity: 5, Unit: "kg", IsAuto: false, MinAlert: 1},
	{ID: "v2", Name: "Cebolla", Quantity: 3, Unit: "kg", IsAuto: false, MinAlert: 0.5},
}

// SeedDefaults fills users, menu and inventory with the default set, each one
// only when its table is still empty. Existing data is never touched.
func SeedDefaults(db *gorm.DB) error {
	if err := seedIfEmpty(db, &models.User{}, func(tx *gorm.DB) error {
		users := make([]models.User, 0, len(defaultUsers))
		for _, u := range defaultUsers {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.PIN), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("no se pudo hashear el PIN de %s: %w", u.ID, err)
			}
			users = append(users, models.User{ID: u.ID, Name: u.Name, Role: u.Role, PinHash: string(hash)})
		}
		return tx.Create(&users).Error
	}); err != nil {
		return err
	}

	if err := seedIfEmpty(db, &models.MenuEntry{}, func(tx *gorm.DB) error {
		menu := append([]models.MenuEntry(nil), defaultMenu...)
		return tx.Create(&menu).Error
	}); err != nil {
		return err
	}

	return seedIfEmpty(db, &models.Material{}, func(tx *gorm.DB) error {
		inv := append([]models.Material(nil), defaultInventory...)
		return tx.Create(&inv).Error
	})
}

func seedIfEmpty(db *gorm.DB, model any, fill func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := fill(tx); err != nil {
			return err
		}
		log.Printf("%T: datos iniciales cargados", model)
		return nil
	})
}
