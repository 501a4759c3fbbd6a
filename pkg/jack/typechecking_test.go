package jack_test

import (
	"strings"
	"testing"

	"jackhack.dev/toolchain/pkg/jack"
)

func parseProgram(t *testing.T, classes ...string) jack.Program {
	t.Helper()

	program := jack.Program{}
	for _, src := range classes {
		parser := jack.NewParser(strings.NewReader(src))
		class, err := parser.Parse()
		if err != nil {
			t.Fatalf("unexpected error parsing source: %v", err)
		}
		program[class.Name] = class
	}

	return program
}

func TestTypeCheckAcceptsResolvableProgram(t *testing.T) {
	program := parseProgram(t, `
		class Counter {
			field int count;

			constructor Counter new() {
				let count = 0;
				return this;
			}

			method int get() {
				return count;
			}

			method void increment(int amount) {
				let count = count + amount;
				return;
			}
		}
	`, `
		class Main {
			function void main() {
				var Counter c;
				let c = Counter.new();
				do c.increment(2);
				return;
			}
		}
	`)

	checker := jack.NewTypeChecker(program)
	ok, err := checker.Check()
	if err != nil {
		t.Fatalf("unexpected error checking well-formed program: %v", err)
	}
	if !ok {
		t.Fatalf("expected well-formed program to be accepted")
	}
}

func TestTypeCheckRejectsUndeclaredVariable(t *testing.T) {
	program := parseProgram(t, `
		class Broken {
			method void run() {
				let total = total + 1;
				return;
			}
		}
	`)

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error resolving undeclared variable 'total', got nil")
	}
}

func TestTypeCheckRejectsUnknownSubroutine(t *testing.T) {
	program := parseProgram(t, `
		class Broken {
			method void run() {
				do Missing.doStuff();
				return;
			}
		}
	`)

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error resolving call to an unknown class, got nil")
	}
}

func TestTypeCheckRejectsBooleanArrayIndex(t *testing.T) {
	program := parseProgram(t, `
		class Broken {
			method void run() {
				var Array values;
				var boolean flag;
				let flag = true;
				let values[flag] = 0;
				return;
			}
		}
	`)

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error rejecting a boolean-typed array index, got nil")
	}
}

func TestTypeCheckRejectsUnknownLocalCall(t *testing.T) {
	program := parseProgram(t, `
		class Broken {
			method void run() {
				do missing();
				return;
			}
		}
	`)

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error resolving an unknown local subroutine call, got nil")
	}
}
