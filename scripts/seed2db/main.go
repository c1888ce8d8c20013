package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
	"github.com/buddiee-app/buddiee/internal/storage/postgres"
)

var opts = struct {
	Seed               string `long:"seed" env:"SEED" default:"" description:"path to a seed file, empty means built-in sample data"`
	Postgres           string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMigrations string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`
}{}

type seedUser struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Avatar    string   `json:"avatar"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

type seedPost struct {
	ID              string   `json:"id"`
	Owner           string   `json:"owner"`
	Username        string   `json:"username"`
	Photos          []string `json:"photos"`
	MainCaption     string   `json:"main_caption"`
	DetailedCaption string   `json:"detailed_caption"`
	Subject         string   `json:"subject"`
	Location        string   `json:"location"`
	UserLocation    string   `json:"user_location"`
}

type seed struct {
	Users []seedUser `json:"users"`
	Posts []seedPost `json:"posts"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "seed2db"
	parser.LongDescription = "Sample data to database importer"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	logrus.Info("seed2db started")
	logrus.Infof("%+v", opts)

	data := sampleSeed()
	if opts.Seed != "" {
		b, err := ioutil.ReadFile(opts.Seed)
		if err != nil {
			logrus.WithError(err).Fatal("failed to read seed file")
		}

		data = &seed{}
		if err := json.Unmarshal(b, data); err != nil {
			logrus.WithError(err).Fatal("failed to unmarshal seed file")
		}
	}

	db := mustGetDB()
	s := postgres.New(db)

	ctx := context.Background()
	now := time.Now().UTC()

	logrus.Info("import users")
	for _, u := range data.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Fatal("failed to hash password")
		}

		id := u.ID
		if id == "" {
			id = uuid.NewString()
		}

		err = s.CreateUser(ctx, &entities.User{
			ID:        id,
			Username:  u.Username,
			Avatar:    u.Avatar,
			Bio:       u.Bio,
			Location:  u.Location,
			Interests: u.Interests,
			CreatedAt: now,
		}, string(hash))

		switch {
		case err == nil:
			logrus.WithField("username", u.Username).Info("user imported")
		case errors.Is(err, storage.ErrAlreadyExists):
			logrus.WithField("username", u.Username).Info("user already exists, skipped")
		default:
			logrus.WithError(err).Fatal("failed to put user into db")
		}
	}

	logrus.Info("import posts")
	for i, p := range data.Posts {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}

		err := s.CreatePost(ctx, &entities.Post{
			ID:              id,
			Owner:           p.Owner,
			Username:        p.Username,
			Photos:          p.Photos,
			MainCaption:     p.MainCaption,
			DetailedCaption: p.DetailedCaption,
			Subject:         p.Subject,
			Location:        p.Location,
			UserLocation:    p.UserLocation,
			Source:          entities.AppSource,
			CreatedAt:       now.Add(-time.Duration(i) * time.Hour),
		})

		switch {
		case err == nil:
			logrus.WithField("caption", p.MainCaption).Info("post imported")
		case errors.Is(err, storage.ErrAlreadyExists):
			logrus.WithField("caption", p.MainCaption).Info("post already exists, skipped")
		default:
			logrus.WithError(err).Fatal("failed to put post into db")
		}
	}

	logrus.Info("done")
}

func sampleSeed() *seed {
	return &seed{
		Users: []seedUser{
			{ID: "user-sophie", Username: "sophie_l", Password: "password123", Avatar: "person.circle.fill", Bio: "Looking for gym and study partners", Location: "London, UK", Interests: []string{"gym", "study"}},
			{ID: "user-alex", Username: "alexchen", Password: "password123", Avatar: "person.circle.fill", Bio: "CS student at UCL", Location: "London, UK", Interests: []string{"hackathons", "coding"}},
			{ID: "user-mia", Username: "mia_j", Password: "password123", Avatar: "person.circle.fill", Bio: "Musician and photographer", Location: "Camden, London", Interests: []string{"music", "photography"}},
		},
		Posts: []seedPost{
			{ID: "post-gym", Owner: "user-sophie", Username: "sophie_l", MainCaption: "Gym buddy wanted", DetailedCaption: "Looking for someone to hit the gym with 3x a week, evenings preferred.", Subject: "fitness", Location: "London, UK", UserLocation: "London, UK"},
			{ID: "post-study", Owner: "user-alex", Username: "alexchen", MainCaption: "UCL study group", DetailedCaption: "Forming a study group for finals, we meet at the main library.", Subject: "study", Location: "Bloomsbury, London", UserLocation: "London, UK"},
			{ID: "post-hackathon", Owner: "user-alex", Username: "alexchen", MainCaption: "Hackathon teammate needed", DetailedCaption: "Need one more teammate for the upcoming 48h hackathon, any stack welcome.", Subject: "coding", Location: "Shoreditch, London", UserLocation: "London, UK"},
			{ID: "post-music", Owner: "user-mia", Username: "mia_j", MainCaption: "Music jam session", DetailedCaption: "Weekly jam session, looking for a drummer and a bassist.", Subject: "music", Location: "Camden, London", UserLocation: "Camden, London"},
			{ID: "post-photo", Owner: "user-mia", Username: "mia_j", MainCaption: "Photography walk", DetailedCaption: "Sunday morning photo walk along the Thames, all levels welcome.", Subject: "photography", Location: "South Bank, London", UserLocation: "Camden, London"},
			{ID: "post-vegan", Owner: "user-sophie", Username: "sophie_l", MainCaption: "Vegan recipe exchange", DetailedCaption: "Swap your favourite vegan recipes over coffee.", Subject: "food", Location: "London, UK", UserLocation: "London, UK"},
		},
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
