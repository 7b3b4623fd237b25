package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/catalogo/internal/config"
	infraEvents "github.com/davicafu/catalogo/internal/infra/events"
	productApp "github.com/davicafu/catalogo/internal/product/application"
	productDomain "github.com/davicafu/catalogo/internal/product/domain"
	productEvents "github.com/davicafu/catalogo/internal/product/infra/inbound/events"
	productHttp "github.com/davicafu/catalogo/internal/product/infra/inbound/http"
	productAnalytics "github.com/davicafu/catalogo/internal/product/infra/outbound/analytics/clickhouse"
	productCache "github.com/davicafu/catalogo/internal/product/infra/outbound/cache"
	productMongo "github.com/davicafu/catalogo/internal/product/infra/outbound/db/mongodb"
	productPostgres "github.com/davicafu/catalogo/internal/product/infra/outbound/db/postgre"
	productSQLite "github.com/davicafu/catalogo/internal/product/infra/outbound/db/sqlite"
	productFS "github.com/davicafu/catalogo/internal/product/infra/outbound/filesystem"
	"github.com/davicafu/catalogo/pkg/logger"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
	sharedCache "github.com/davicafu/catalogo/shared/platform/cache"
)

const startupTimeout = 15 * time.Second

// publisher es el lado de publicación que main necesita cerrar al salir.
type publisher interface {
	productDomain.EventPublisher
	Close() error
}

// ---------------- Main ----------------
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("❌ Servicio terminado con error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("👋 Servicio detenido")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// ---------------- Escritura ----------------
	repo, closeRepo, err := openWriteStore(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	// ---------------- Lectura ----------------
	mongoClient, err := mongo.Connect(startCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	readStore, err := productMongo.NewReadStoreMongoDB(startCtx, mongoClient, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return err
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	redisCache := productCache.NewRedisProductCache(rdb, cfg.CacheTTL)
	if err := redisCache.Ping(startCtx); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		memCache := productCache.NewInMemoryProductCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		log.Info("✅ Redis conectado, cache habilitado")
		cacheInstance = redisCache
	}

	// Servicio y proyecciones comparten la misma instancia para que una
	// invalidación descarte los repoblados en vuelo.
	guardedCache := sharedCache.NewGuarded(cacheInstance)

	// ---------------- Events ---------------
	pub, dial, err := openBroker(cfg, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	notifier := infraEvents.NewLocalNotifier()
	go logNotifications(ctx, notifier.Subscribe(32), log)

	// ---------------- Event log (opcional) ----------------
	var eventLog *productAnalytics.EventLog
	if cfg.ClickHouseAddr != "" {
		eventLog, err = productAnalytics.NewEventLog(startCtx, cfg.ClickHouseAddr, cfg.ClickHouseDatabase)
		if err != nil {
			return err
		}
		defer eventLog.Close()
		if err := eventLog.InitSchema(startCtx); err != nil {
			return err
		}
		log.Info("📊 Registro de eventos en ClickHouse habilitado")
	}

	// --------------- Servicio --------------
	service := productApp.NewProductService(repo, readStore, pub, log,
		productApp.WithNotifier(notifier),
		productApp.WithCache(guardedCache),
		productApp.WithExchange(cfg.ExchangeName),
	)

	created := productEvents.NewCreatedConsumer(productApp.NewCreateApplier(readStore, log), log)
	updated := productEvents.NewUpdatedConsumer(productApp.NewUpdateApplier(readStore, guardedCache, log), log)
	deleted := productEvents.NewDeletedConsumer(productApp.NewDeleteApplier(readStore, guardedCache, log), log)
	if eventLog != nil {
		created.WithEventLog(eventLog)
		updated.WithEventLog(eventLog)
		deleted.WithEventLog(eventLog)
	}

	workers := []*productEvents.Worker{
		productEvents.NewWorker(cfg.ExchangeName, created, dial, log),
		productEvents.NewWorker(cfg.ExchangeName, updated, dial, log),
		productEvents.NewWorker(cfg.ExchangeName, deleted, dial, log),
	}

	// ---------------- HTTP ----------------
	images, err := productFS.NewLocalImageStorage(cfg.ImageDir, cfg.ImageBaseURL)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	productHttp.RegisterProductRoutes(router, productHttp.NewProductHandler(service, images, log))
	productHttp.RegisterSupportRoutes(router, cfg.ImageDir)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ---------------- Arranque ----------------
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range workers {
		w := w.WithDialRetry(cfg.BrokerDialAttempts, cfg.BrokerDialDelay)
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("🛑 Apagando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openWriteStore elige SQLite en despliegues locales y Postgres en el resto.
func openWriteStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (productDomain.ProductRepository, func(), error) {
	driver, dsn := "pgx", cfg.PostgresDSN
	if cfg.LocalDeployment {
		driver, dsn = "sqlite", cfg.SQLitePath
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { db.Close() }

	if err := db.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}

	if cfg.LocalDeployment {
		db.SetMaxOpenConns(1)
		if err := productSQLite.InitSQLite(ctx, db); err != nil {
			closeDB()
			return nil, nil, err
		}
		log.Info("🗄️ Almacén de escritura: SQLite", zap.String("path", cfg.SQLitePath))
		return productSQLite.NewProductRepoSQLite(db), closeDB, nil
	}

	if err := productPostgres.InitPostgres(ctx, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	log.Info("🗄️ Almacén de escritura: Postgres")
	return productPostgres.NewProductRepoPostgres(db), closeDB, nil
}

// openBroker devuelve el publicador compartido y el dialer con el que cada
// worker abre su propia conexión.
func openBroker(cfg *config.Config, log *zap.Logger) (publisher, sharedBus.Dialer, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		log.Info("🚀 Usando Kafka como bus de eventos")
		writer := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		return infraEvents.NewKafkaPublisher(writer, log), infraEvents.KafkaDialer(cfg.KafkaBrokers, log), nil

	case config.BrokerMemory:
		log.Info("⚡️ Usando bus de eventos en memoria")
		bus := infraEvents.NewInMemoryEventBus(64, log)
		bus.Declare(cfg.ExchangeName, productDomain.QueueProductCreated, productDomain.QueueProductUpdated, productDomain.QueueProductDeleted)
		return memoryPublisher{bus}, bus.Dialer(), nil

	default:
		log.Info("🐇 Usando RabbitMQ como bus de eventos")
		pub, err := infraEvents.DialRabbitPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			return nil, nil, err
		}
		return pub, infraEvents.RabbitDialer(cfg.RabbitMQURL, log), nil
	}
}

type memoryPublisher struct {
	*infraEvents.InMemoryEventBus
}

func (memoryPublisher) Close() error { return nil }

func logNotifications(ctx context.Context, ch <-chan productDomain.Event, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			log.Debug("🔔 Evento publicado",
				zap.String("event_type", string(evt.Type())),
				zap.String("product_id", evt.ProductID().String()),
			)
		}
	}
}
