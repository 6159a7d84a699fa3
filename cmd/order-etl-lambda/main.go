package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/synaptica-ai/order-etl/pkg/catalog"
	"github.com/synaptica-ai/order-etl/pkg/common/config"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/etl"
	"github.com/synaptica-ai/order-etl/pkg/pipeline"
	"github.com/synaptica-ai/order-etl/pkg/storage"
)

func main() {
	logger.Init("order-etl-lambda")
	cfg := config.Load()

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load AWS configuration")
	}

	orchestrator := pipeline.New(
		storage.NewS3Store(s3.NewFromConfig(awsCfg)),
		catalog.NewGlueNotifier(glue.NewFromConfig(awsCfg)),
		pipeline.WithCrawlerName(cfg.CrawlerName),
		pipeline.WithLogger(logger.WithField("component", "orchestrator")),
	)

	svc := etl.NewService(orchestrator, nil, 0)
	lambda.Start(svc.LambdaHandler())
}
