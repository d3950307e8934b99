package config

// GenesisFile is the genesis.toml layout.
type GenesisFile struct {
	ChainID  uint64         `toml:"chain_id"`
	Admin    string         `toml:"admin"`
	Treasury string         `toml:"treasury"`
	Relayers []string       `toml:"relayers,omitempty"`
	Grants   []GenesisGrant `toml:"grants,omitempty"`
	Areas    []GenesisArea  `toml:"areas,omitempty"`
	Mints    []GenesisMint  `toml:"mints,omitempty"`
}

// GenesisGrant hands one account a set of roles.
type GenesisGrant struct {
	Account  string   `toml:"account"`
	Roles    []string `toml:"roles"`
	Metadata string   `toml:"metadata,omitempty"`
}

// GenesisArea registers an area in file order, so the first one is area 1.
// Head, when set, must be granted admin-head above.
type GenesisArea struct {
	Name     string `toml:"name"`
	Head     string `toml:"head,omitempty"`
	Metadata string `toml:"metadata,omitempty"`
}

// GenesisMint allocates tokens. Amount is a decimal string.
type GenesisMint struct {
	Account string `toml:"account"`
	Amount  string `toml:"amount"`
}

// ProposalFile is the YAML layout for `gov propose -f`.
type ProposalFile struct {
	Description string           `yaml:"description"`
	Actions     []ProposalAction `yaml:"actions"`
}

// ProposalAction is one module call, with arguments in CLI form.
type ProposalAction struct {
	Module string   `yaml:"module"`
	Method string   `yaml:"method"`
	Args   []string `yaml:"args,omitempty"`
}
