package prod

const (
	DynamoDBRegion = "us-east-2"

	GOOGLE_STORAGE_HOST = "https://storage.googleapis.com"
)
