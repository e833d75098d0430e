package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Product is one product line of the requesting company.
type Product struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Categories  []string `yaml:"categories" json:"categories"`
}

// CompanyProfile describes the company the personas are generated FOR,
// i.e. the operator of this service, not the analyzed website. It
// anchors prompts so model analyses stay oriented toward markets the
// operator can actually serve.
type CompanyProfile struct {
	CompanyName      string    `yaml:"company_name" json:"company_name"`
	CoreBusiness     string    `yaml:"core_business" json:"core_business"`
	TargetCustomers  []string  `yaml:"target_customers" json:"target_customers"`
	IndustriesServed []string  `yaml:"industries_served" json:"industries_served"`
	Products         []Product `yaml:"products" json:"products"`
}

// LoadProfile reads a company profile from YAML.
func LoadProfile(path string) (*CompanyProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p CompanyProfile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	return &p, nil
}

// Complete reports whether the profile carries enough substance to
// steer generation, naming any missing sections.
func (p *CompanyProfile) Complete() (bool, []string) {
	var missing []string
	if strings.TrimSpace(p.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(p.CoreBusiness) == "" {
		missing = append(missing, "core_business")
	}
	if len(p.TargetCustomers) == 0 {
		missing = append(missing, "target_customers")
	}
	if len(p.Products) == 0 {
		missing = append(missing, "products")
	}
	return len(missing) == 0, missing
}

// Context renders the profile as a prompt-ready block.
func (p *CompanyProfile) Context() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", p.CompanyName)
	fmt.Fprintf(&b, "Core business: %s\n", p.CoreBusiness)
	if len(p.TargetCustomers) > 0 {
		fmt.Fprintf(&b, "Target customers: %s\n", strings.Join(p.TargetCustomers, ", "))
	}
	if len(p.IndustriesServed) > 0 {
		fmt.Fprintf(&b, "Industries served: %s\n", strings.Join(p.IndustriesServed, ", "))
	}
	for _, prod := range p.Products {
		fmt.Fprintf(&b, "Product: %s - %s\n", prod.Name, prod.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
