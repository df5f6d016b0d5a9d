package domain

// CompanyProfile describes the business every employee works for.
type CompanyProfile struct {
	Name        string `json:"name" yaml:"name"`
	Industry    string `json:"industry" yaml:"industry"`
	Description string `json:"description" yaml:"description"`
	Mission     string `json:"mission" yaml:"mission"`
	Currency    string `json:"currency" yaml:"currency"`
}

type ClientID string

type Client struct {
	ID      ClientID `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Contact string   `json:"contact,omitempty" yaml:"contact"`
	Notes   string   `json:"notes,omitempty" yaml:"notes"`
}

// WorkspaceSeed is the initial state a workspace is loaded with.
type WorkspaceSeed struct {
	Company   CompanyProfile `yaml:"company"`
	Employees []Employee     `yaml:"employees"`
	Projects  []Project      `yaml:"projects"`
	Clients   []Client       `yaml:"clients"`
	Tasks     []Task         `yaml:"tasks"`
}
