package planio

import (
	"gopkg.in/yaml.v3"

	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// yamlPlan is the collapsed, total-order rendering of a plan: one entry
// per primitive step in executable order, each naming the schema and the
// grounded argument names a human (or a downstream executor) would read
// off directly, rather than the full DAG/bindings structure plan_to_json
// preserves. Grounded on the original implementation's plan_to_yaml.
type yamlPlan struct {
	Name  string     `yaml:"name"`
	Steps []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Step   string   `yaml:"step"`
	Schema string   `yaml:"schema"`
	Args   []string `yaml:"args"`
}

// ExportYAML collapses p to a linear executable action list: a
// topological walk of the ordering DAG skipping the init/goal
// sentinels, each step rendered with its grounded argument names. It
// fails only if p's ordering graph contains a cycle; it does not check
// that p is fully refined.
func ExportYAML(p *plan.Plan, meta Meta) ([]byte, error) {
	order, err := p.Ordering.TopologicalSort()
	if err != nil {
		return nil, err
	}

	y := yamlPlan{Name: meta.Name}
	for _, id := range order {
		if id == p.InitID || id == p.GoalID {
			continue
		}
		step, ok := p.StepByID(id)
		if !ok {
			continue
		}
		args := make([]string, len(step.Args))
		for i, a := range step.Args {
			args[i] = argLabel(p, a)
		}
		y.Steps = append(y.Steps, yamlStep{Step: step.InstanceID, Schema: step.SchemaName, Args: args})
	}

	return yaml.Marshal(y)
}

// argLabel renders a step argument as a human-readable label: the bound
// constant's name for a grounded object, the argument's own descriptive
// name otherwise.
func argLabel(p *plan.Plan, a ptypes.Argument) string {
	if a.Kind == ptypes.KindObject {
		if c, bound := p.Symbolic.Constant(a); bound {
			return c.String()
		}
	}
	return a.String()
}
