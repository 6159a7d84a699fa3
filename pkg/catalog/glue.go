package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
)

// GlueAPI is the subset of *glue.Client used by GlueNotifier.
type GlueAPI interface {
	StartCrawler(ctx context.Context, params *glue.StartCrawlerInput, optFns ...func(*glue.Options)) (*glue.StartCrawlerOutput, error)
}

type GlueNotifier struct {
	client GlueAPI
}

func NewGlueNotifier(client GlueAPI) *GlueNotifier {
	return &GlueNotifier{client: client}
}

// StartCrawler treats a crawler that is already running as accepted: the
// in-flight crawl will pick up the new artifact.
func (g *GlueNotifier) StartCrawler(ctx context.Context, name string) error {
	_, err := g.client.StartCrawler(ctx, &glue.StartCrawlerInput{Name: aws.String(name)})
	if err == nil {
		return nil
	}

	var running *types.CrawlerRunningException
	if errors.As(err, &running) {
		logger.Log.WithField("crawler", name).Info("Crawler already running")
		return nil
	}
	return fmt.Errorf("glue start crawler %s: %w", name, err)
}
