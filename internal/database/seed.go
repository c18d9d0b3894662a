package database

import (
	"errors"
	"fmt"

	"dryfruit_store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedSize struct {
	label    string
	price    int64
	original int64
	stock    int
}

type seedProduct struct {
	name, slug, category, description string
	sizes                             []seedSize
}

var seedCategories = []model.Category{
	{Name: "Nuts", Slug: "nuts", Description: "Almonds, cashews, pistachios and walnuts"},
	{Name: "Dried Fruits", Slug: "dried-fruits", Description: "Raisins, figs, apricots and dates"},
}

var seedProducts = []seedProduct{
	{"California Almonds", "california-almonds", "nuts", "Crunchy premium almonds", []seedSize{
		{"200g", 300, 350, 50}, {"500g", 700, 820, 30}, {"1kg", 1350, 1600, 10}}},
	{"W240 Cashews", "w240-cashews", "nuts", "Whole cashews, W240 grade", []seedSize{
		{"200g", 320, 380, 40}, {"500g", 760, 900, 20}}},
	{"Iranian Pistachios", "iranian-pistachios", "nuts", "Roasted and salted", []seedSize{
		{"200g", 450, 520, 25}, {"500g", 1080, 1250, 12}}},
	{"Kashmiri Walnuts", "kashmiri-walnuts", "nuts", "Light halves", []seedSize{
		{"250g", 420, 480, 30}}},
	{"Afghan Raisins", "afghan-raisins", "dried-fruits", "Seedless green raisins", []seedSize{
		{"250g", 180, 220, 60}, {"500g", 340, 420, 35}}},
	{"Medjool Dates", "medjool-dates", "dried-fruits", "Soft and jumbo", []seedSize{
		{"500g", 650, 750, 20}, {"1kg", 1250, 1450, 8}}},
}

// Seed 写入演示数据；已存在的 slug 跳过，可重复执行。
func Seed(db *gorm.DB, upiID, payeeName string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		catIDs := make(map[string]uint, len(seedCategories))
		for _, c := range seedCategories {
			c := c
			if err := tx.Where("slug = ?", c.Slug).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
			catIDs[c.Slug] = c.ID
		}

		for _, sp := range seedProducts {
			var existing model.Product
			err := tx.Where("slug = ?", sp.slug).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			catID := catIDs[sp.category]
			p := model.Product{
				Name:        sp.name,
				Slug:        sp.slug,
				Description: sp.description,
				CategoryID:  &catID,
				IsActive:    true,
			}
			for _, s := range sp.sizes {
				p.Sizes = append(p.Sizes, model.ProductSize{
					Label:         s.label,
					Price:         decimal.NewFromInt(s.price),
					OriginalPrice: decimal.NewFromInt(s.original),
					Stock:         s.stock,
				})
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", sp.slug, err)
			}
		}

		ps := model.PaymentSetting{ID: model.PaymentSettingID}
		return tx.Where(model.PaymentSetting{ID: model.PaymentSettingID}).
			Attrs(model.PaymentSetting{UPIID: upiID, PayeeName: payeeName, CODEnabled: true}).
			FirstOrCreate(&ps).Error
	})
}
