package application

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	filestore "github.com/stemsplit/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/stemsplit/stemsplit-be/src/shared/config"
	dynamolib "github.com/stemsplit/stemsplit-be/src/shared/lib/dynamo"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/storagepath"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	runstorage "github.com/stemsplit/stemsplit-be/src/shared/run/storage"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_router"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/process"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/save_stems"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/start"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/worker"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
	"google.golang.org/api/option"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker worker.QueueWorker
}

type Config struct {
	RabbitMQURL        string
	RabbitMQQueueName  string
	DynamoConfig       config.Dynamo
	CloudStorageConfig config.CloudStorage
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))
	producerConn := must(amqp091.Dial(config.RabbitMQURL))

	return App{
		worker: newWorker(config, consumerConn, producerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.worker.Stop()
}

func newWorker(config Config, consumerConn *amqp091.Connection, producerConn *amqp091.Connection) worker.QueueWorker {
	publisher := must(rabbitmq.NewQueuePublisher(producerConn, config.RabbitMQQueueName))

	runStore := runstorage.NewDB(newDynamoDB(config.DynamoConfig))
	queueWorker := must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, runStore, publisher)))

	return queueWorker
}

func newDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
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

	return dynamolib.NewDynamoDBWrapper(dynamo.New(dbSession, dbConfig))
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		))

	case config.LocalCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func newJobRouter(config Config, runStore runentity.Store, publisher rabbitmq.Publisher) job_router.JobRouter {
	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	return job_router.NewJobRouter(
		runStore,
		publisher,
		start.NewJobHandler(runStore),
		process.NewJobHandler(runStore, newGoogleFileStore(config.CloudStorageConfig), pathGenerator),
		save_stems.NewJobHandler(runStore))
}
