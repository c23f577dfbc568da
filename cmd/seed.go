package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/retrueque/internal/catalog"
	"github.com/retrueque/internal/config"
	"github.com/retrueque/internal/database"
	"github.com/retrueque/internal/users"
)

// SeedCommand returns the CLI command for seeding demo data
func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Create the schema and seed demo categories, users and items",
		Action: runSeed,
	}
}

type seedItem struct {
	title     string
	category  string
	image     string
	wants     string
	userEmail string
	distance  string
	condition string
}

func runSeed(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := c.Context
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	catalogRepo := catalog.NewCatalogRepo(db)
	userService := users.NewUserService(db)
	userRepo := users.NewUserRepo(db)

	categories := map[string]*catalog.Category{}
	for _, cat := range []catalog.Category{
		{Name: "Ropa y Accesorios", Icon: "fa-shirt"},
		{Name: "Tecnología", Icon: "fa-laptop"},
		{Name: "Hogar y Muebles", Icon: "fa-couch"},
		{Name: "Libros", Icon: "fa-book"},
		{Name: "Deportes", Icon: "fa-bicycle"},
		{Name: "Instrumentos", Icon: "fa-guitar"},
	} {
		created, err := catalogRepo.UpsertCategory(ctx, cat.Name, cat.Icon)
		if err != nil {
			return err
		}
		categories[created.Name] = created
	}

	seedUsers := []struct {
		email, name, password string
	}{
		{"alex@demo.com", "Alex", "password123"},
		{"maria@demo.com", "María G.", "password123"},
		{"juan@demo.com", "Juan P.", "password123"},
	}
	userIDs := map[string]int64{}
	for _, u := range seedUsers {
		user, err := ensureUser(ctx, userService, userRepo, u.email, u.name, u.password)
		if err != nil {
			return err
		}
		userIDs[u.email] = user.ID
	}

	items := []seedItem{
		{
			title:     "Bicicleta Vintage Restaurada",
			category:  "Deportes",
			image:     "https://images.unsplash.com/photo-1485965120184-e224f723d621?auto=format&fit=crop&q=80&w=500",
			wants:     "Guitarra acústica o Mueble de TV",
			userEmail: "maria@demo.com",
			distance:  "2 km",
			condition: "Excelente",
		},
		{
			title:     "Cámara Polaroid Antigua",
			category:  "Tecnología",
			image:     "https://images.unsplash.com/photo-1526170375885-4d8ecf77b99f?auto=format&fit=crop&q=80&w=500",
			wants:     "Libros de arte o Vinilos",
			userEmail: "juan@demo.com",
			distance:  "5 km",
			condition: "Usado",
		},
		{
			title:     "Colección Harry Potter (Tapa dura)",
			category:  "Libros",
			image:     "https://images.unsplash.com/photo-1512820790803-83ca734da794?auto=format&fit=crop&q=80&w=500",
			wants:     "Juegos de mesa o Plantas",
			userEmail: "alex@demo.com",
			distance:  "1.5 km",
			condition: "Bueno",
		},
	}

	for _, item := range items {
		cat, ok := categories[item.category]
		if !ok {
			continue
		}
		userID, ok := userIDs[item.userEmail]
		if !ok {
			continue
		}
		_, err := catalogRepo.InsertItem(ctx, &catalog.Item{
			Title:      item.title,
			Image:      item.image,
			Wants:      item.wants,
			Distance:   item.distance,
			Condition:  item.condition,
			CategoryID: cat.ID,
			UserID:     userID,
		})
		if err != nil {
			return err
		}
		log.Info().Str("title", item.title).Msg("Created item")
	}

	fmt.Println("Seeding finished.")
	return nil
}

// ensureUser registers the user, or returns the existing account when the
// seed has run before.
func ensureUser(ctx context.Context, svc *users.UserService, repo *users.UserRepo, email, name, password string) (*users.User, error) {
	user, err := svc.Register(ctx, email, name, password)
	if err == users.ErrEmailTaken {
		return repo.FindByEmail(ctx, email)
	}
	return user, err
}
