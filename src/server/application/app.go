package application

import (
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"
	rungateway "github.com/stemsplit/stemsplit-be/src/server/internal/run/gateway"
	runusecase "github.com/stemsplit/stemsplit-be/src/server/internal/run/usecase"
	filestore "github.com/stemsplit/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/stemsplit/stemsplit-be/src/shared/config"
	dynamolib "github.com/stemsplit/stemsplit-be/src/shared/lib/dynamo"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/storagepath"
	runstorage "github.com/stemsplit/stemsplit-be/src/shared/run/storage"
	"google.golang.org/api/option"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo *echo.Echo
	port string
}

type Config struct {
	DynamoConfig       config.Dynamo
	CloudStorageConfig config.CloudStorage
	RabbitMQURL        string
	RabbitMQQueueName  string
	CORSAllowedOrigins []string
	Port               string
	Log                bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	runGateway := makeRunGateway(config)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// run routes
	handleRoute(POST, "/runs", runGateway.CreateRun)
	handleRoute(GET, "/runs/:id", func(c echo.Context) error {
		runID := c.Param("id")
		return runGateway.GetRun(c, runID)
	})
	handleRoute(POST, "/runs/:id/cancel", func(c echo.Context) error {
		runID := c.Param("id")
		return runGateway.CancelRun(c, runID)
	})

	return App{
		echo: e,
		port: config.Port,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRunGateway(config Config) rungateway.Gateway {
	runDB := runstorage.NewDB(makeDynamoDB(config.DynamoConfig))

	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	runUsecase := runusecase.NewUsecase(
		runDB,
		makeGoogleFileStore(config.CloudStorageConfig),
		pathGenerator,
		makeRabbitMQPublisher(config))

	return rungateway.NewGateway(runUsecase)
}

func makeRabbitMQPublisher(config Config) *rabbitmq.QueuePublisher {
	conn, err := amqp091.Dial(config.RabbitMQURL)
	if err != nil {
		panic(errors.Wrap(err, "Failed to dial rabbitMQ url"))
	}

	publisher, err := rabbitmq.NewQueuePublisher(conn, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func makeGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	makeStore := func(opts ...option.ClientOption) filestore.GoogleFileStore {
		fileStore, err := filestore.NewGoogleFileStore(cloudStorageConfig.GetStorageHost(), opts...)
		if err != nil {
			panic(errors.Wrap(err, "Failed to create Google file store"))
		}

		return fileStore
	}

	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return makeStore(option.WithCredentialsJSON([]byte(t.SecretKey)))

	case config.LocalCloudStorage:
		return makeStore(
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
