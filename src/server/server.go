package main

import (
	"strings"

	"github.com/stemsplit/stemsplit-be/src/server/application"
	"github.com/stemsplit/stemsplit-be/src/shared/config"
	"github.com/stemsplit/stemsplit-be/src/shared/config/dev"
	"github.com/stemsplit/stemsplit-be/src/shared/config/envvar"
	"github.com/stemsplit/stemsplit-be/src/shared/config/prod"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:        envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:  envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CORSAllowedOrigins: allowedOrigins,
			Port:               ":5000",
			Log:                true,
		}
	case env.Development:
		appConfig = application.Config{
			DynamoConfig: dev.DynamoConfig,
			// using prod storage for now, the local fake GCS doesn't persist
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  dev.RabbitMQQueueName,
			CORSAllowedOrigins: []string{"*"},
			Port:               ":5000",
			Log:                true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
