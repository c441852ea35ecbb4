package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"foyer-backend/models"
	"foyer-backend/store"
)

func mustParseDate(value string) *datatypes.Date {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(fmt.Sprintf("seed date %q: %v", value, err))
	}
	d := datatypes.Date(t)
	return &d
}

// SeedDatabase inserts a small demo dataset when no university exists yet:
// one university with a two-bloc foyer, one without a foyer, and a few
// students.
func SeedDatabase(ctx context.Context, st store.Store, log *logrus.Logger) error {
	existing, err := st.ListUniversities(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("Demo data already seeded")
		return nil
	}

	err = st.WithinTransaction(ctx, func(tx store.Store) error {
		foyer := &models.Foyer{
			Name:     "Foyer El Ghazala",
			Capacity: 300,
			Blocs: []models.Bloc{
				{Name: "A", Capacity: 120},
				{Name: "B", Capacity: 180},
			},
		}
		if err := tx.SaveFoyer(ctx, foyer); err != nil {
			return fmt.Errorf("foyer: %w", err)
		}

		universities := []models.University{
			{Name: "ESPRIT", Address: "Ariana", FoyerID: &foyer.ID},
			{Name: "ENIT", Address: "Tunis"},
		}
		for i := range universities {
			if err := tx.SaveUniversity(ctx, &universities[i]); err != nil {
				return fmt.Errorf("university %s: %w", universities[i].Name, err)
			}
		}

		blocA, blocB := foyer.Blocs[0].ID, foyer.Blocs[1].ID
		rooms := []models.Room{
			{Number: 101, Type: models.RoomTypeSimple, BlocID: &blocA},
			{Number: 102, Type: models.RoomTypeDouble, BlocID: &blocA},
			{Number: 103, Type: models.RoomTypeTriple, BlocID: &blocA},
			{Number: 201, Type: models.RoomTypeSimple, BlocID: &blocB},
			{Number: 202, Type: models.RoomTypeDouble, BlocID: &blocB},
			{Number: 900, Type: models.RoomTypeSimple},
		}
		for i := range rooms {
			if err := tx.SaveRoom(ctx, &rooms[i]); err != nil {
				return fmt.Errorf("room %d: %w", rooms[i].Number, err)
			}
		}

		students := []models.Student{
			{FirstName: "Amira", LastName: "Ben Salah", CIN: 12345678, School: "ESPRIT", BirthDate: mustParseDate("2003-04-12")},
			{FirstName: "Youssef", LastName: "Trabelsi", CIN: 23456789, School: "ESPRIT", BirthDate: mustParseDate("2002-11-30")},
			{FirstName: "Ines", LastName: "Gharbi", CIN: 34567890, School: "ENIT", BirthDate: mustParseDate("2004-01-05")},
		}
		for i := range students {
			if err := tx.SaveStudent(ctx, &students[i]); err != nil {
				return fmt.Errorf("student %d: %w", students[i].CIN, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	log.Println("✅ Demo data seeded")
	return nil
}
