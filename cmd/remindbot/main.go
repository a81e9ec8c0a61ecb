package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Geneteca/discord-bot/internal/bot"
	"github.com/Geneteca/discord-bot/internal/config"
	"github.com/Geneteca/discord-bot/internal/service"
	"github.com/Geneteca/discord-bot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	eventSvc := service.NewEventService(st)
	taskSvc := service.NewTaskService(st)

	discordBot, err := bot.New(cfg.DiscordToken, eventSvc, taskSvc, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bot")
	}

	reminderSvc := service.NewReminderService(st, discordBot, cfg.Location, cfg.GraceWindow)

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleInterval(cfg.TickInterval, func() {
		tickCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reminderSvc.Tick(tickCtx, time.Now().In(cfg.Location))
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule reminder tick")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Dur("tick_interval", cfg.TickInterval).Msg("reminder bot started")
	if err := discordBot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
