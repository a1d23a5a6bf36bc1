package stats

import (
	"bytes"
	"fmt"
	"testing"
)

// Utilities for validating the stats registry contents from tests.

type RuleChecker struct {
	name    string
	checker func(got, expected interface{}) bool
}

func nilCheck(a, b interface{}) (nilFound, eqValues bool) {
	if b == nil && a == nil {
		return true, true
	} else if b == nil || a == nil {
		return true, false
	}
	return false, false
}

// got is int64 (as rendered by the registry), expected is an int.
func int64EqTest(a, b interface{}) bool {
	if nilFound, eqValue := nilCheck(a, b); nilFound {
		return eqValue
	}
	return a.(int64) == int64(b.(int))
}

var Int64EqTest = RuleChecker{name: "Int64EqTest", checker: int64EqTest}

func int64GTTest(a, b interface{}) bool {
	if nilFound, eqValue := nilCheck(a, b); nilFound {
		return eqValue
	}
	return a.(int64) > int64(b.(int))
}

var Int64GTTest = RuleChecker{name: "Int64GTTest", checker: int64GTTest}

func floatEqTest(a, b interface{}) bool {
	if nilFound, eqValue := nilCheck(a, b); nilFound {
		return eqValue
	}
	return a.(float64) == b.(float64)
}

var FloatEqTest = RuleChecker{name: "FloatEqTest", checker: floatEqTest}

func doesNotExistTest(a, b interface{}) bool {
	return a == nil
}

var DoesNotExistTest = RuleChecker{name: "DoesNotExistTest", checker: doesNotExistTest}

// Rule pairs a checker with the expected value. Checkers receive (got, expected).
type Rule struct {
	Checker RuleChecker
	Value   interface{}
}

// StatsOk reports whether the registry satisfies every rule, and describes each violation.
func StatsOk(tag string, statsRegistry StatsRegistry, contains map[string]Rule) (bool, string) {
	reg, ok := statsRegistry.(*jsonStatsRegistry)
	if !ok {
		return false, fmt.Sprintf("%s: registry %T cannot be verified", tag, statsRegistry)
	}
	asJson := reg.MarshalAll()

	pass := true
	var msg bytes.Buffer
	msg.WriteString(tag)
	msg.WriteString(":stats registry error:\n")
	for key, rule := range contains {
		gotValue := asJson[key]
		if rule.Checker.checker(gotValue, rule.Value) {
			continue
		}
		pass = false
		if rule.Checker.name == DoesNotExistTest.name {
			msg.WriteString(fmt.Sprintf("%s: found stat entry when there should not be one\n", key))
		} else {
			msg.WriteString(fmt.Sprintf("%s: got %v, expected to pass %s with %v\n", key, gotValue, rule.Checker.name, rule.Value))
		}
	}
	return pass, msg.String()
}

// VerifyStats fails t for every rule the registry violates and dumps the registry.
func VerifyStats(tag string, statsRegistry StatsRegistry, t *testing.T, contains map[string]Rule) {
	if ok, msg := StatsOk(tag, statsRegistry, contains); !ok {
		t.Error(msg)
		PPrintStats(tag, statsRegistry)
	}
}

func PPrintStats(tag string, statsRegistry StatsRegistry) {
	if mp, ok := statsRegistry.(MarshalerPretty); ok {
		regBytes, _ := mp.MarshalJSONPretty()
		fmt.Printf("%s:  Stats Registry:\n%s\n", tag, regBytes)
	}
}
