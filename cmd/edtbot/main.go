package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/enzomtp/edtbot/internal/backup"
	"github.com/enzomtp/edtbot/internal/bot"
	"github.com/enzomtp/edtbot/internal/database"
	"github.com/enzomtp/edtbot/internal/epsi"
	"github.com/enzomtp/edtbot/internal/logging"
	"github.com/enzomtp/edtbot/internal/notify"
	"github.com/enzomtp/edtbot/internal/render"
	"github.com/enzomtp/edtbot/internal/store"
)

func main() {
	logging.Setup(os.Getenv("EDTBOT_LOG_LEVEL"), os.Getenv("EDTBOT_LOG_FORMAT"))

	token := os.Getenv("EDTBOT_DISCORD_TOKEN")
	if token == "" {
		log.Fatal("EDTBOT_DISCORD_TOKEN is required")
	}

	dbPath := os.Getenv("EDTBOT_DB_PATH")
	if dbPath == "" {
		dbPath = "edtbot.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	users := store.NewUserStore(db)
	ledger := store.NewNotificationStore(db)

	var clientOpts []epsi.Option
	if base := os.Getenv("EDTBOT_API_BASE_URL"); base != "" {
		clientOpts = append(clientOpts, epsi.WithBaseURL(base))
	}
	client := epsi.NewClient(clientOpts...)

	renderer, err := render.NewRenderer()
	if err != nil {
		log.Fatalf("failed to build renderer: %v", err)
	}

	b, err := bot.New(token, users, client, renderer)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	if err := b.Start(); err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}
	defer b.Stop()

	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		loc = time.Local
	}

	notifier := notify.New(users, ledger, client, b, renderer, notify.Config{
		DigestHour: envInt("EDTBOT_DIGEST_HOUR", 7),
		ChannelID:  os.Getenv("EDTBOT_NOTIFY_CHANNEL"),
		Location:   loc,
		Alive:      b.Alive,
	})
	notifier.Start(context.Background())
	defer notifier.Stop()

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("EDTBOT_S3_ENDPOINT"),
			Bucket:    os.Getenv("EDTBOT_S3_BUCKET"),
			Region:    os.Getenv("EDTBOT_S3_REGION"),
			AccessKey: os.Getenv("EDTBOT_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("EDTBOT_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Hour:          envInt("EDTBOT_BACKUP_HOUR", 4),
		RetentionDays: envInt("EDTBOT_BACKUP_RETENTION_DAYS", 30),
	}, db)
	backups.Start(context.Background())
	defer backups.Stop()

	fmt.Println("edtbot running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s: invalid integer %q", key, v)
	}
	return n
}
