//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/staybook/service-booking/internal/application"
	"github.com/staybook/service-booking/internal/cache"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	bookingEvents "github.com/staybook/service-booking/internal/events"
	"github.com/staybook/service-booking/internal/repository"
	"github.com/staybook/service-booking/migrations"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/database"
	"github.com/staybook/service-booking/pkg/events"
	"github.com/staybook/service-booking/pkg/kafka"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// serviceStack holds the wired-up application services.
type serviceStack struct {
	Bookings        *application.BookingService
	Payments        *application.PaymentService
	Users           *application.UserService
	Listings        *application.ListingService
	Consumer        *bookingEvents.PaymentEventConsumer
	CleanupProducer func()
}

// setupPostgres starts a PostgreSQL container and applies the SQL migrations.
func setupPostgres(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_booking",
	}
	logger := zap.NewNop()

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(migrations.FS, ".", cfg.DatabaseURL(), logger))

	return db, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
}

// setupContainers starts PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	db, cleanupPG := setupPostgres(t)

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents, events.TopicPaymentEvents)

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup: func() {
			if err := kafkaContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate Kafka container: %v", err)
			}
			cleanupPG()
		},
	}
}

// setupServiceStack wires the services against db. A nil brokers list leaves
// publishing disabled and no consumer is built.
func setupServiceStack(t *testing.T, db *gorm.DB, brokers []string) *serviceStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	listingRepo := cache.NewListingRepository(repository.NewGormListingRepository(db), nil, cache.DefaultConfig(), logger)
	pricing := bookingDomain.NewNightlyPricingCalculator()
	jwtManager := auth.NewJWTManager("integration", time.Minute, time.Hour)

	stack := &serviceStack{
		Users:           application.NewUserService(userRepo, jwtManager, logger),
		Listings:        application.NewListingService(listingRepo, userRepo, logger),
		CleanupProducer: func() {},
	}

	var publisher application.EventPublisher
	if len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, logger)
		publisher = producer
		stack.CleanupProducer = func() { _ = producer.Close() }
	}

	stack.Bookings = application.NewBookingService(bookingRepo, listingRepo, userRepo, pricing, publisher, logger)
	stack.Payments = application.NewPaymentService(
		repository.NewGormPaymentRepository(db), bookingRepo, pricing, publisher, logger,
	)

	if len(brokers) > 0 {
		groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
		stack.Consumer = bookingEvents.NewPaymentEventConsumer(brokers, groupID, stack.Payments, logger)
	}
	return stack
}

// seedGuestAndListing registers a guest, a host and one listing at rateCents per night.
func seedGuestAndListing(t *testing.T, s *serviceStack, rateCents int64) (guestID, listingID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.New().String()[:8]

	guest, err := s.Users.Register(ctx, application.RegisterRequest{
		FirstName: "Grace", LastName: "Guest", Email: "guest-" + suffix + "@example.com",
		PhoneNumber: "+254712345678", Role: "guest", Password: "guest-password",
	})
	require.NoError(t, err)

	host, err := s.Users.Register(ctx, application.RegisterRequest{
		FirstName: "Hassan", LastName: "Host", Email: "host-" + suffix + "@example.com",
		PhoneNumber: "+254712345679", Role: "host", Password: "host-password",
	})
	require.NoError(t, err)

	listing, err := s.Listings.CreateListing(ctx, host.ID, application.CreateListingRequest{
		Name: "Garden Cottage", Location: "Naivasha", PricePerNightCents: rateCents, Currency: "USD", Capacity: 4,
	})
	require.NoError(t, err)

	return guest.ID, listing.ID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPaymentStatus polls the payments table until the status matches.
func waitForPaymentStatus(t *testing.T, db *gorm.DB, paymentID uuid.UUID, expectedStatus string, timeout time.Duration) repository.PaymentModel {
	t.Helper()
	var result repository.PaymentModel
	require.Eventually(t, func() bool {
		var model repository.PaymentModel
		if err := db.Where("id = ?", paymentID).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "payment did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
