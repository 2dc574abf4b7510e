package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

const effectsTableOutput = "EffectsTableName"

var (
	stackName string
	region    string
	tableName string
	sceneFile string
	verbose   bool
	pruneOld  bool
)

var rootCmd = &cobra.Command{
	Use:   "seed-effects",
	Short: "Write the effects of a scene file to the DynamoDB effects table",
	Long: `Reads a YAML scene and creates or replaces one item per effect in the
effects table. The table name comes from --table or the EffectsTableName
output of the CloudFormation stack. Existing items keep their creation time.
With --prune, items whose id is not in the scene are deleted.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&stackName, "stack", "fx-tuner", "CloudFormation stack name")
	rootCmd.Flags().StringVar(&region, "region", "us-east-1", "AWS region")
	rootCmd.Flags().StringVar(&tableName, "table", "", "Effects table name (skips the stack lookup)")
	rootCmd.Flags().StringVarP(&sceneFile, "scene", "s", "scene.yaml", "YAML scene file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&pruneOld, "prune", false, "Delete effects that are not in the scene")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger, err := shared.NewLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	records, err := shared.LoadScene(sceneFile)
	if err != nil {
		return err
	}

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	name := tableName
	if name == "" {
		// Get table name from CloudFormation
		name, err = getTableNameFromStack(ctx, cloudformation.NewFromConfig(cfg), stackName)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Using DynamoDB table: %s\n", name)
	table := shared.NewTable(dynamodb.NewFromConfig(cfg), name, logger)
	if err := seed(ctx, cmd.OutOrStdout(), table, logger, records); err != nil {
		return err
	}
	if pruneOld {
		return prune(ctx, cmd.OutOrStdout(), table, logger, records)
	}
	return nil
}

type describeStacksAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// getTableNameFromStack retrieves the effects table name from CloudFormation stack outputs
func getTableNameFromStack(ctx context.Context, client describeStacksAPI, stackName string) (string, error) {
	output, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe stack: %w", err)
	}

	if len(output.Stacks) == 0 {
		return "", fmt.Errorf("stack '%s' not found", stackName)
	}

	for _, stackOutput := range output.Stacks[0].Outputs {
		if aws.ToString(stackOutput.OutputKey) == effectsTableOutput && stackOutput.OutputValue != nil {
			return *stackOutput.OutputValue, nil
		}
	}

	return "", fmt.Errorf("could not find %s in CloudFormation outputs", effectsTableOutput)
}

// seed creates or replaces every record, keeping the creation time of existing items
func seed(ctx context.Context, out io.Writer, table *shared.Table, logger *zap.Logger, records []shared.EffectRecord) error {
	store := shared.NewDynamoStore(table, logger)

	for _, record := range records {
		var existing shared.EffectRecord
		found, err := table.GetItem(ctx, shared.StringKey("targetId", record.ID), &existing)
		if err != nil {
			logger.Warn("Could not check for existing effect", zap.String("target", record.ID), zap.Error(err))
		}

		action := "created"
		if found {
			action = "updated"
			record.CreatedAt = existing.CreatedAt
		}

		if err := store.PutEffect(ctx, record); err != nil {
			return fmt.Errorf("failed to put effect %s: %w", record.ID, err)
		}
		fmt.Fprintf(out, "✓ %s (%s) %s with %d parameters\n", record.ID, record.Label(), action, len(record.Parameters))
	}

	fmt.Fprintf(out, "Seeded %d effects\n", len(records))
	return nil
}

// prune deletes every stored effect whose id is not among records
func prune(ctx context.Context, out io.Writer, table *shared.Table, logger *zap.Logger, records []shared.EffectRecord) error {
	keep := make(map[string]bool, len(records))
	for _, record := range records {
		keep[record.ID] = true
	}

	var stored []shared.EffectRecord
	if err := table.Scan(ctx, &stored); err != nil {
		return fmt.Errorf("failed to scan effects: %w", err)
	}

	removed := 0
	for _, record := range stored {
		if keep[record.ID] {
			continue
		}
		if err := table.DeleteItem(ctx, shared.StringKey("targetId", record.ID)); err != nil {
			return fmt.Errorf("failed to delete effect %s: %w", record.ID, err)
		}
		logger.Info("Pruned effect", zap.String("target", record.ID))
		fmt.Fprintf(out, "✗ %s (%s) deleted\n", record.ID, record.Label())
		removed++
	}

	fmt.Fprintf(out, "Pruned %d effects\n", removed)
	return nil
}
