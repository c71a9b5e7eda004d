// Команда seed заводит учётную запись консоли с профилем и, для роли
// restaurant, заявку ресторана в статусе pending.
//
//	seed -email owner@example.com -password secret -role restaurant -restaurant "Falafel House"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/password"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/migrations"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage/repository"
)

// Store: операции провижининга.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string, profile models.Profile) (string, error)
	CreateOwner(ctx context.Context, email, passwordHash string, profile models.Profile, r models.Restaurant) (userID, restaurantID string, err error)
}

// Account: параметры заводимой учётной записи.
type Account struct {
	Email        string
	Password     string
	Role         models.Role
	FullName     string
	Restaurant   string
	RestaurantAr string
	Phone        string
}

var (
	errRestaurantForbidden = errors.New("restaurant can only be created for role restaurant")
	errRestaurantRequired  = errors.New("-restaurant-ar and -phone require -restaurant")
)

func main() {
	var acc Account
	var role string
	flag.StringVar(&acc.Email, "email", "", "account email")
	flag.StringVar(&acc.Password, "password", "", "account password")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "admin, restaurant or customer")
	flag.StringVar(&acc.FullName, "name", "", "display name")
	flag.StringVar(&acc.Restaurant, "restaurant", "", "restaurant name (en), role restaurant only")
	flag.StringVar(&acc.RestaurantAr, "restaurant-ar", "", "restaurant name (ar)")
	flag.StringVar(&acc.Phone, "phone", "", "restaurant phone number")
	flag.Parse()
	acc.Role = models.Role(role)

	cfg := config.MustLoad()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		log.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		log.Error("failed to run migrations", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, restaurantID, err := provision(ctx, db, acc)
	if err != nil {
		log.Error("failed to provision account", sl.Err(err))
		os.Exit(1)
	}
	log.Info("account provisioned",
		slog.String("user_id", userID),
		slog.String("restaurant_id", restaurantID),
	)
}

// provision проверяет параметры и создаёт пользователя с профилем, а для
// владельца ещё и ресторан. Всё создаётся одной транзакцией.
func provision(ctx context.Context, store Store, acc Account) (userID, restaurantID string, err error) {
	const op = "seed.provision"

	acc.Email = strings.TrimSpace(acc.Email)
	if acc.Email == "" || acc.Password == "" {
		return "", "", fmt.Errorf("%s: email and password are required", op)
	}
	if !acc.Role.Valid() {
		return "", "", fmt.Errorf("%s: unknown role %q", op, acc.Role)
	}
	if acc.Restaurant == "" && (acc.RestaurantAr != "" || acc.Phone != "") {
		return "", "", fmt.Errorf("%s: %w", op, errRestaurantRequired)
	}
	if acc.Restaurant != "" && acc.Role != models.RoleRestaurant {
		return "", "", fmt.Errorf("%s: %w", op, errRestaurantForbidden)
	}

	hash, err := password.GetHash(acc.Password)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	profile := models.Profile{Role: acc.Role, FullName: acc.FullName}

	if acc.Restaurant == "" {
		userID, err = store.CreateUser(ctx, acc.Email, hash, profile)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		return userID, "", nil
	}

	r := models.Restaurant{
		Name:   models.LocalizedText{"en": acc.Restaurant},
		Status: models.StatusPending,
	}
	if acc.RestaurantAr != "" {
		r.Name["ar"] = acc.RestaurantAr
	}
	if acc.Phone != "" {
		r.Phone = &acc.Phone
	}
	userID, restaurantID, err = store.CreateOwner(ctx, acc.Email, hash, profile, r)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return userID, restaurantID, nil
}
