package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/bootstrap"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/config"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/logger"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

const usage = `usage:
  retention-cli train   --input file.csv --owner id
  retention-cli predict --owner id --record '{"satisfaction_level":0.11,...}'
  retention-cli summary --input file.csv
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init()

	ctx := context.Background()
	switch os.Args[1] {
	case "train":
		err = runTrain(ctx, env, os.Args[2:])
	case "predict":
		err = runPredict(ctx, env, os.Args[2:])
	case "summary":
		err = runSummary(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg(os.Args[1] + " failed")
		os.Exit(1)
	}
}

func runTrain(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	input := fs.String("input", "", "labeled training CSV")
	owner := fs.String("owner", "", "owner id")
	_ = fs.Parse(args)
	if *input == "" || *owner == "" {
		return fmt.Errorf("--input and --owner are required")
	}

	ds, err := data.ReadCSVFile(*input)
	if err != nil {
		return err
	}
	svc, cleanup, err := bootstrap.Service(ctx, env)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := svc.TrainDataset(ctx, *owner, ds)
	if err != nil {
		return err
	}
	fmt.Printf("=== %s ===\n", rec.ModelName)
	fmt.Printf("Train rows: %d, test rows: %d\n", rec.TrainRows, rec.TestRows)
	fmt.Printf("Accuracy: %.4f\n", rec.Accuracy)
	fmt.Println("class  precision  recall  f1     support")
	for _, c := range rec.Report.PerClass {
		fmt.Printf("%-6d %-10.4f %-7.4f %-6.4f %d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Printf("Confusion: %v\n", rec.Report.Confusion)
	return nil
}

func runPredict(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	owner := fs.String("owner", "", "owner id")
	raw := fs.String("record", "", "employee record as JSON")
	_ = fs.Parse(args)
	if *owner == "" || *raw == "" {
		return fmt.Errorf("--owner and --record are required")
	}
	var in pipeline.RecordInput
	dec := json.NewDecoder(strings.NewReader(*raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("parse --record: %w", err)
	}

	svc, cleanup, err := bootstrap.Service(ctx, env)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Predict(ctx, *owner, in.Record())
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	input := fs.String("input", "", "labeled CSV")
	_ = fs.Parse(args)
	if *input == "" {
		return fmt.Errorf("--input is required")
	}
	ds, err := data.ReadCSVFile(*input)
	if err != nil {
		return err
	}
	records, labels, err := pipeline.ParseRecords(ds, true)
	if err != nil {
		return err
	}
	s := pipeline.Summarize(records, labels)
	fmt.Printf("Total employees:  %d\n", s.TotalEmployees)
	fmt.Printf("Attrition rate:   %.2f%%\n", s.AttritionRate)
	fmt.Printf("Avg satisfaction: %.2f\n", s.AvgSatisfaction)
	fmt.Println("By department:")
	for _, g := range s.ByDepartment {
		fmt.Printf("  %-12s %5d employees  %6.2f%%\n", g.Name, g.Employees, g.AttritionRate)
	}
	fmt.Println("By salary:")
	for _, g := range s.BySalary {
		fmt.Printf("  %-12s %5d employees  %6.2f%%\n", g.Name, g.Employees, g.AttritionRate)
	}
	return nil
}
