package core

type Environment string

const (
	DevelopmentEnv Environment = "development"
	ProductionEnv  Environment = "production"
)

func (e Environment) IsProduction() bool {
	return e == ProductionEnv
}

func (e Environment) IsDevelopment() bool {
	// Anything not explicitly production gets development defaults, so a
	// missing --env flag never runs with debug logging disabled.
	return !e.IsProduction()
}
