// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

var (
	Port              string
	MongoURI          string
	DatabaseName      string
	JWTKey            []byte
	JWTExpiration     time.Duration
	ResetHour         int
	SchedulerInterval time.Duration
)

func LoadConfig() {
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017"
	}

	DatabaseName = os.Getenv("MONGO_DB")
	if DatabaseName == "" {
		DatabaseName = "workforce"
	}

	JWTKey = []byte(os.Getenv("JWT_SECRET"))
	if len(JWTKey) == 0 {
		JWTKey = []byte("secret")
	}

	expireStr := os.Getenv("JWT_EXPIRE")
	dur := 24 * time.Hour
	if expireStr != "" {
		if expireStr == "7d" {
			dur = 7 * 24 * time.Hour
		} else {
			var err error
			dur, err = time.ParseDuration(expireStr)
			if err != nil {
				log.Printf("Invalid JWT_EXPIRE: %s, using 24h", expireStr)
				dur = 24 * time.Hour
			}
		}
	}
	JWTExpiration = dur

	// Hour of day after which the daily asset reset may run.
	ResetHour = 1
	if hourStr := os.Getenv("ASSET_RESET_HOUR"); hourStr != "" {
		hour, err := strconv.Atoi(hourStr)
		if err != nil || hour < 0 || hour > 23 {
			log.Printf("Invalid ASSET_RESET_HOUR: %s, using 1", hourStr)
		} else {
			ResetHour = hour
		}
	}

	SchedulerInterval = time.Hour
	if intervalStr := os.Getenv("ASSET_SCHEDULER_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil || interval <= 0 {
			log.Printf("Invalid ASSET_SCHEDULER_INTERVAL: %s, using 1h", intervalStr)
		} else {
			SchedulerInterval = interval
		}
	}
}
