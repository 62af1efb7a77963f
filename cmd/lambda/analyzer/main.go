// analyzer Lambda runs one sentiment-analysis interval per invocation. The
// recurring trigger created at query registration invokes it with the query's
// id and topic until the run budget is exhausted and the trigger deletes
// itself.
package main

import (
	"context"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	pblambda "github.com/pulseboard/pulseboard/internal/lambda"
)

// handleAnalyze runs the interval through the coordinator and maps the result
// onto the response shape.
func handleAnalyze(ctx context.Context, d *pblambda.Deps, req pblambda.AnalyzeRequest) (pblambda.AnalyzeResponse, error) {
	res, err := d.Coordinator.HandleInterval(ctx, req.QueryID, req.Topic)
	if err != nil {
		return pblambda.AnalyzeResponse{}, err
	}
	return pblambda.AnalyzeResponse{
		MainTopicStored: res.MainTopicStored,
		RunCountAfter:   res.RunCountAfter,
		IntervalsNeeded: res.IntervalsNeeded,
	}, nil
}

func handler(ctx context.Context, req pblambda.AnalyzeRequest) (pblambda.AnalyzeResponse, error) {
	d, err := pblambda.GetDeps()
	if err != nil {
		return pblambda.AnalyzeResponse{}, err
	}
	return handleAnalyze(ctx, d, req)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
