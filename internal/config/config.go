package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		BotName string `yaml:"bot_name" env-default:"TripBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env-default:"tripbot"`
	} `yaml:"mongo"`
	Listen struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"9100"`
		ApiKey  string `yaml:"key" env:"LISTEN_API_KEY" env-default:""`
	} `yaml:"listen"`
	Services struct {
		UserAgent    string        `yaml:"user_agent" env-default:"TripBot/1.0"`
		GeocoderURL  string        `yaml:"geocoder_url" env-default:"https://nominatim.openstreetmap.org"`
		GeocoderRate float64       `yaml:"geocoder_rate" env-default:"1"`
		WeatherURL   string        `yaml:"weather_url" env-default:"https://api.open-meteo.com"`
		PlacesURL    string        `yaml:"places_url" env-default:"https://api.opentripmap.com"`
		PlacesApiKey string        `yaml:"places_api_key" env:"PLACES_API_KEY" env-default:""`
		PlacesRate   float64       `yaml:"places_rate" env-default:"5"`
		RoutingURL   string        `yaml:"routing_url" env-default:"https://routing.openstreetmap.de/routed-car"`
		StaticMapURL string        `yaml:"static_map_url" env-default:"http://127.0.0.1:5000"`
		CityCatalog  string        `yaml:"city_catalog" env-default:""`
		HttpTimeout  time.Duration `yaml:"http_timeout" env-default:"15s"`
	} `yaml:"services"`
	Cache struct {
		TTL       time.Duration `yaml:"ttl" env-default:"24h"`
		RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:""`
		RedisPass string        `yaml:"redis_password" env:"REDIS_PASSWORD" env-default:""`
		RedisDB   int           `yaml:"redis_db" env-default:"0"`
	} `yaml:"cache"`
	Worker struct {
		Size int `yaml:"size" env-default:"16"`
	} `yaml:"worker"`
}

var instance *Config
var once sync.Once

// MustLoad reads the YAML config once; values in the environment (and a
// .env file next to the binary, if present) take precedence.
func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		_ = godotenv.Load()
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
