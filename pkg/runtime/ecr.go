package runtime

import "fmt"

// ImageURI builds the fully qualified ECR image reference for a
// repository in the configured account and region.
func ImageURI(accountID, region, repository, tag string) string {
	if tag == "" {
		tag = "latest"
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s:%s", accountID, region, repository, tag)
}

// ContainerImageURI resolves the configured container image reference.
func (c Config) ContainerImageURI() string {
	return ImageURI(c.AccountID, c.Region, c.ContainerRepository, c.ContainerImageTag)
}
