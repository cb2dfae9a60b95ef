package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TripBot/bot"
	"TripBot/bot/workflow"
	"TripBot/bot/workflows/cityedit"
	"TripBot/bot/workflows/guide"
	"TripBot/bot/workflows/mainmenu"
	"TripBot/bot/workflows/notes"
	"TripBot/bot/workflows/profile"
	"TripBot/bot/workflows/shared"
	"TripBot/bot/workflows/signup"
	"TripBot/bot/workflows/tripcreate"
	"TripBot/bot/workflows/trips"
	"TripBot/bot/workflows/weather"
	"TripBot/impl/core"
	"TripBot/internal/config"
	"TripBot/internal/database"
	"TripBot/internal/http-server/api"
	"TripBot/internal/lib/logger"
	"TripBot/internal/lib/sl"
	"TripBot/internal/service/cache"
	"TripBot/internal/service/geocoder"
	"TripBot/internal/service/places"
	"TripBot/internal/service/routemap"
	weatherapi "TripBot/internal/service/weather"
	"TripBot/internal/worker"

	"github.com/redis/go-redis/v9"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting tripbot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	pool := worker.NewPool(conf.Worker.Size, lg)

	var userBot *bot.UserBot
	if conf.Telegram.Enabled {
		if db == nil {
			lg.Error("telegram bot needs mongo, bot disabled")
		} else {
			userBot = startBot(conf, lg, db, pool, handler)
		}
	}

	server := api.New(conf, lg, handler)
	if conf.Listen.Enabled {
		go func() {
			if err := server.Start(); err != nil {
				lg.Error("api server", sl.Err(err))
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	lg.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if userBot != nil {
		userBot.Stop()
	}
	if conf.Listen.Enabled {
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("api server shutdown", sl.Err(err))
		}
	}
	pool.Stop(ctx)
	if db != nil {
		db.Close(ctx)
	}
}

func newCache(conf *config.Config, lg *slog.Logger) cache.Cache {
	if conf.Cache.RedisAddr == "" {
		return cache.NewMemory(conf.Cache.TTL)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Cache.RedisAddr,
		Password: conf.Cache.RedisPass,
		DB:       conf.Cache.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		lg.Warn("redis unavailable, using memory cache", slog.String("addr", conf.Cache.RedisAddr), sl.Err(err))
		return cache.NewMemory(conf.Cache.TTL)
	}
	lg.Info("redis cache initialized", slog.String("addr", conf.Cache.RedisAddr))
	return cache.NewRedis(rdb, conf.Cache.TTL, "tripbot:", lg)
}

func startBot(conf *config.Config, lg *slog.Logger, db *repository.MongoDB, pool *worker.Pool, handler *core.Core) *bot.UserBot {
	catalog, err := geocoder.LoadCatalog(conf.Services.CityCatalog)
	if err != nil {
		lg.Error("city catalog", sl.Err(err))
		os.Exit(1)
	}
	lg.Debug("city catalog loaded", slog.Int("cities", catalog.Len()))

	c := newCache(conf, lg)
	geo := geocoder.New(geocoder.Config{
		BaseURL:   conf.Services.GeocoderURL,
		UserAgent: conf.Services.UserAgent,
		Rate:      conf.Services.GeocoderRate,
		Timeout:   conf.Services.HttpTimeout,
	}, catalog, lg)
	sky := weatherapi.New(conf.Services.WeatherURL, conf.Services.HttpTimeout, c, lg)
	poi := places.New(places.Config{
		BaseURL: conf.Services.PlacesURL,
		ApiKey:  conf.Services.PlacesApiKey,
		Rate:    conf.Services.PlacesRate,
		Timeout: conf.Services.HttpTimeout,
	}, c, lg)
	maps := routemap.New(routemap.Config{
		RoutingURL:   conf.Services.RoutingURL,
		StaticMapURL: conf.Services.StaticMapURL,
		Timeout:      conf.Services.HttpTimeout,
	}, lg)

	userBot, err := bot.NewUserBot(conf.Telegram.ApiKey, lg)
	if err != nil {
		lg.Error("failed to initialize telegram bot", sl.Err(err))
		return nil
	}

	locks := workflow.NewLocks()
	deps := shared.Deps{
		Users: db,
		Trips: db,
		Notes: db,
		Geo:   geo,
		Async: workflow.NewAsync(pool, locks, userBot.Messenger(), lg),
		Now:   time.Now,
		Log:   lg,
	}

	signupFlow := signup.New(deps)
	createFlow := tripcreate.New(deps, maps)
	tripsFlow := trips.New(deps)
	editFlow := cityedit.New(deps)
	notesFlow := notes.New(deps)
	profileFlow := profile.New(deps)
	menuFlow := mainmenu.New(deps)

	router := workflow.NewRouter(locks, lg)
	router.Register(
		signupFlow,
		createFlow,
		tripsFlow,
		editFlow,
		notesFlow,
		profileFlow,
		weather.New(deps, sky),
		guide.New(deps, poi),
		menuFlow,
	)
	router.OnStart(signupFlow)
	router.Fallback(menuFlow.Greet)
	router.OnMessage(signupFlow, createFlow, tripsFlow, editFlow, notesFlow, profileFlow)
	router.OnConfirm(tripsFlow, signupFlow, createFlow, editFlow, notesFlow, profileFlow)
	router.OnCancel(tripsFlow, editFlow, notesFlow, createFlow, profileFlow, menuFlow)

	userBot.SetDispatcher(router)
	handler.SetSessionResetter(router)

	if err = userBot.Start(); err != nil {
		lg.Error("telegram bot error", sl.Err(err))
		return nil
	}
	lg.With(
		slog.String("bot_name", conf.Telegram.BotName),
	).Info("telegram bot initialized")
	return userBot
}
