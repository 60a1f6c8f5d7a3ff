// Command preflight verifies the AWS prerequisites for the showcase
// gateway: credentials, the deployment bucket, the execution role, model
// access, the local deployment package, and the container image. Each
// check prints a pass/fail line; the exit code is non-zero when any
// check fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/avollmer/agentcore-showcase/pkg/config"
)

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	stsClient := sts.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)
	iamClient := iam.NewFromConfig(awsCfg)
	bedrockClient := bedrock.NewFromConfig(awsCfg)
	ecrClient := ecr.NewFromConfig(awsCfg)

	checks := []check{
		{"AWS credentials", func(ctx context.Context) (string, error) {
			out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
			if err != nil {
				return "", err
			}
			return "account " + aws.ToString(out.Account), nil
		}},
		{"deployment bucket", func(ctx context.Context) (string, error) {
			if cfg.AWS.S3Bucket == "" {
				return "", fmt.Errorf("S3_BUCKET not configured")
			}
			_, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
				Bucket: aws.String(cfg.AWS.S3Bucket),
			})
			if err != nil {
				return "", err
			}
			return cfg.AWS.S3Bucket, nil
		}},
		{"execution role", func(ctx context.Context) (string, error) {
			if cfg.AWS.ExecutionRoleARN == "" {
				return "", fmt.Errorf("EXECUTION_ROLE_ARN not configured")
			}
			name := roleNameFromARN(cfg.AWS.ExecutionRoleARN)
			_, err := iamClient.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
			if err != nil {
				return "", err
			}
			return name, nil
		}},
		{"model access", func(ctx context.Context) (string, error) {
			out, err := bedrockClient.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d foundation models visible", len(out.ModelSummaries)), nil
		}},
		{"deployment package", func(ctx context.Context) (string, error) {
			if cfg.AWS.DeploymentPackagePath == "" {
				return "", fmt.Errorf("DEPLOYMENT_PACKAGE_PATH not configured")
			}
			info, err := os.Stat(cfg.AWS.DeploymentPackagePath)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%d bytes)", cfg.AWS.DeploymentPackagePath, info.Size()), nil
		}},
		{"container image", func(ctx context.Context) (string, error) {
			if cfg.AWS.ContainerRepository == "" {
				return "", fmt.Errorf("CONTAINER_ECR_REPOSITORY_NAME not configured")
			}
			tag := cfg.AWS.ContainerImageTag
			if tag == "" {
				tag = "latest"
			}
			_, err := ecrClient.DescribeImages(ctx, &ecr.DescribeImagesInput{
				RepositoryName: aws.String(cfg.AWS.ContainerRepository),
				ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
			})
			if err != nil {
				return "", err
			}
			return cfg.AWS.ContainerRepository + ":" + tag, nil
		}},
	}

	failed := 0
	for _, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			failed++
			fmt.Printf("  ✗ %-20s %v\n", c.name, err)
			continue
		}
		fmt.Printf("  ✓ %-20s %s\n", c.name, detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Println("all checks passed")
	return nil
}

// roleNameFromARN extracts the role name from an IAM role ARN. GetRole
// takes the name, not the ARN.
func roleNameFromARN(arn string) string {
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}
