package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thealinfix/hypebot/internal/app"
	"github.com/thealinfix/hypebot/internal/bot"
	"github.com/thealinfix/hypebot/internal/config"
	"github.com/thealinfix/hypebot/internal/gemini"
	"github.com/thealinfix/hypebot/internal/publisher"
	"github.com/thealinfix/hypebot/internal/scheduler"
	"github.com/thealinfix/hypebot/internal/sources"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Загружаем переменные окружения (токены и настройки)
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		log.Fatalf("load env config: %v", err)
	}

	// Список источников: YAML, если задан, иначе встроенный
	srcList := config.DefaultSources()
	if envCfg.SourcesPath != "" {
		srcList, err = config.LoadSources(envCfg.SourcesPath)
		if err != nil {
			log.Fatalf("load sources config: %v", err)
		}
	}

	// Инициализируем модули
	httpClient := &http.Client{Timeout: 20 * time.Second}
	fetcher := sources.NewFetcher(srcList, httpClient, time.Now, envCfg.MaxImagesPerPost)

	stateStore := state.NewStore(state.Options{
		Path:            envCfg.StatePath,
		MaxPending:      envCfg.MaxPendingPosts,
		MaxPostAgeDays:  envCfg.MaxPostAgeDays,
		DefaultChannel:  envCfg.Channel,
		DefaultTimezone: envCfg.DefaultTimezone,
	})
	if err := stateStore.Load(ctx); err != nil {
		log.Fatalf("load state: %v", err)
	}

	geminiClient, err := gemini.NewClient(ctx, envCfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("create Gemini client: %v", err)
	}
	captioner := gemini.NewCaptioner(geminiClient)

	tgClient := telegram.NewClient(envCfg.TelegramToken)
	pub := publisher.New(tgClient, stateStore, envCfg.AdminChatID, time.Now)

	b := bot.New(bot.Deps{
		Telegram:    tgClient,
		Store:       stateStore,
		Fetcher:     fetcher,
		Captioner:   captioner,
		Publisher:   pub,
		AdminChatID: envCfg.AdminChatID,
		ImageDir:    envCfg.ImageDir,
	})

	pipeline := app.NewPipeline(app.PipelineDeps{
		Fetcher:   fetcher,
		Captioner: captioner,
		Store:     stateStore,
		Notifier:  b,
	})
	b.SetPipeline(pipeline)

	// Периодические задачи
	sched := scheduler.New()
	mustAdd := func(err error) {
		if err != nil {
			log.Fatalf("schedule job: %v", err)
		}
	}
	mustAdd(sched.AddInterval("check-releases", envCfg.CheckInterval, func(ctx context.Context) error {
		_, err := pipeline.CheckReleases(ctx)
		return err
	}))
	mustAdd(sched.AddInterval("publish-scheduled", time.Minute, func(ctx context.Context) error {
		pub.PublishScheduled(ctx)
		return nil
	}))
	mustAdd(sched.AddInterval("auto-publish", 5*time.Minute, func(ctx context.Context) error {
		pub.PublishFromFavorites(ctx)
		return nil
	}))
	mustAdd(sched.AddJob("cleanup", "0 3 * * *", func(ctx context.Context) error {
		removed, expired, err := stateStore.CleanOld(ctx)
		if err != nil {
			return err
		}
		if removed > 0 || expired > 0 {
			log.Printf("Cleanup: removed %d pending, %d scheduled", removed, expired)
		}
		return nil
	}))

	sched.Start()
	defer sched.Stop()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("bot stopped: %v", err)
	}

	log.Println("shutdown complete")
}
