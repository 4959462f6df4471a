package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchparty/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "PORT",
		flagKey:      "port",
		defaultValue: 10000,
	}
	logLevel = configVar[string]{
		envKey:       "LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	store = configVar[string]{
		envKey:       "ROOM_STORE",
		flagKey:      "store",
		defaultValue: app.StoreMemory,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 24 * time.Hour,
	}
	sendQueueSize = configVar[int]{
		envKey:       "SEND_QUEUE_SIZE",
		flagKey:      "send-queue-size",
		defaultValue: 256,
	}
	peerKey = configVar[string]{
		envKey:       "PEER_KEY",
		flagKey:      "peer-key",
		defaultValue: "peerjs",
	}
	peerAliveTimeout = configVar[time.Duration]{
		envKey:       "PEER_ALIVE_TIMEOUT",
		flagKey:      "peer-alive-timeout",
		defaultValue: 60 * time.Second,
	}
	peerExpireTimeout = configVar[time.Duration]{
		envKey:       "PEER_EXPIRE_TIMEOUT",
		flagKey:      "peer-expire-timeout",
		defaultValue: 5 * time.Second,
	}
	peerDiscovery = configVar[bool]{
		envKey:       "PEER_DISCOVERY",
		flagKey:      "peer-discovery",
		defaultValue: false,
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(store.flagKey, store.defaultValue, "Room store: memory or redis")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(roomTTL.flagKey, roomTTL.defaultValue, "Redis key expiry of an idle room")
	pflag.Int(sendQueueSize.flagKey, sendQueueSize.defaultValue, "Outbound messages buffered per connection")
	pflag.String(peerKey.flagKey, peerKey.defaultValue, "Peer broker API key")
	pflag.Duration(peerAliveTimeout.flagKey, peerAliveTimeout.defaultValue, "Peer broker heartbeat timeout")
	pflag.Duration(peerExpireTimeout.flagKey, peerExpireTimeout.defaultValue, "How long a peer message waits for an offline peer")
	pflag.Bool(peerDiscovery.flagKey, peerDiscovery.defaultValue, "Allow listing connected peers")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(host)
	bind(port)
	bind(logLevel)
	bind(store)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(roomTTL)
	bind(sendQueueSize)
	bind(peerKey)
	bind(peerAliveTimeout)
	bind(peerExpireTimeout)
	bind(peerDiscovery)

	return &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		Store:             viper.GetString(store.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		RoomTTL:           viper.GetDuration(roomTTL.flagKey),
		SendQueueSize:     viper.GetInt(sendQueueSize.flagKey),
		PeerKey:           viper.GetString(peerKey.flagKey),
		PeerAliveTimeout:  viper.GetDuration(peerAliveTimeout.flagKey),
		PeerExpireTimeout: viper.GetDuration(peerExpireTimeout.flagKey),
		PeerDiscovery:     viper.GetBool(peerDiscovery.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
