package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/calcsteps/derive"
	"github.com/njchilds90/calcsteps/exercise"
	"github.com/njchilds90/calcsteps/limit"
)

func failure(msg string) error { return &ExitError{Code: ExitFailure, Message: msg} }

func (o *RootOptions) derivative(heading string, res *derive.Result) error {
	if o.out.format == "json" {
		if err := o.out.json(res); err != nil {
			return err
		}
	} else {
		o.out.trace(heading, res.Steps, res.Result)
	}
	if res.Error != "" {
		return failure(res.Error)
	}
	return nil
}

func newDiffCommand(opts *RootOptions) *cobra.Command {
	var variable string
	var order int
	cmd := &cobra.Command{
		Use:   "diff EXPRESSION",
		Short: "Differentiate an expression",
		Example: `  calcsteps diff "x^3 + 2*x^2 + x"
  calcsteps diff "sin(x^2)" --order 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := opts.calc.Differentiate(cmd.Context(), args[0], variable, order)
			heading := fmt.Sprintf("d/d%s %s", variable, args[0])
			if order > 1 {
				heading = fmt.Sprintf("d^%d/d%s^%d %s", order, variable, order, args[0])
			}
			return opts.derivative(heading, res)
		},
	}
	cmd.Flags().StringVar(&variable, "var", "x", "variable of differentiation")
	cmd.Flags().IntVarP(&order, "order", "n", 1, "derivative order")
	return cmd
}

func newImplicitCommand(opts *RootOptions) *cobra.Command {
	var variable string
	cmd := &cobra.Command{
		Use:     "implicit EQUATION",
		Short:   "Find dy/dx by implicit differentiation",
		Example: `  calcsteps implicit "x^2 + y^2 = 25"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := opts.calc.DifferentiateImplicit(cmd.Context(), args[0], variable)
			return opts.derivative("Implicit: "+args[0], res)
		},
	}
	cmd.Flags().StringVar(&variable, "var", "x", "independent variable")
	return cmd
}

func newLimitCommand(opts *RootOptions) *cobra.Command {
	var variable, at string
	cmd := &cobra.Command{
		Use:   "limit EXPRESSION",
		Short: "Evaluate a limit",
		Example: `  calcsteps limit "(x^2 - 4)/(x - 2)" --at 2
  calcsteps limit "(4*x^2 + 2)/(x^2 + 1)" --at inf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			point, err := limit.ParsePoint(at)
			if err != nil {
				return commandError("--at", err)
			}
			res := opts.calc.Limit(cmd.Context(), args[0], variable, point)
			if opts.out.format == "json" {
				if err := opts.out.json(res); err != nil {
					return err
				}
			} else {
				answer := ""
				if res.Error == "" {
					answer = res.Result.String()
				}
				opts.out.trace(fmt.Sprintf("lim %s->%s %s", variable, point, args[0]), res.Steps, answer)
			}
			if res.Error != "" {
				return failure(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variable, "var", "x", "limit variable")
	cmd.Flags().StringVar(&at, "at", "", "point: a number, inf or -inf")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newExerciseCommand(opts *RootOptions) *cobra.Command {
	var kind, category string
	var count int
	var solve bool
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Generate practice exercises",
		Example: `  calcsteps exercise --kind limit --category radical
  calcsteps exercise --count 5 --solve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return commandError("--count must be positive", nil)
			}
			list := make([]exercise.Exercise, 0, count)
			for range count {
				ex, err := opts.calc.GenerateExercise(exercise.Kind(kind), exercise.Category(category))
				if err != nil {
					return commandError("generate exercise", err)
				}
				list = append(list, ex)
			}
			if opts.out.format == "json" {
				return opts.out.json(list)
			}
			for i, ex := range list {
				line := fmt.Sprintf("%d. [%s/%s] %s: %s", i+1, ex.Kind, ex.Category, ex.Description, ex.Expression)
				if ex.Point != nil {
					line += " as x -> " + ex.Point.String()
				}
				if ex.Order > 1 {
					line += fmt.Sprintf(" (order %d)", ex.Order)
				}
				fmt.Fprintln(opts.out.w, headingStyle.Render(line))
				if solve {
					fmt.Fprintln(opts.out.w, indent(opts.answer(cmd, ex), "   "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "derivative", "derivative or limit")
	cmd.Flags().StringVar(&category, "category", "", "exercise category (random when empty)")
	cmd.Flags().IntVar(&count, "count", 1, "number of exercises")
	cmd.Flags().BoolVar(&solve, "solve", false, "print the answer after each exercise")
	return cmd
}

func (o *RootOptions) answer(cmd *cobra.Command, ex exercise.Exercise) string {
	switch {
	case ex.Kind == exercise.KindLimit:
		res := o.calc.Limit(cmd.Context(), ex.Expression, ex.Variable, *ex.Point)
		if res.Error != "" {
			return errorStyle.Render(res.Error)
		}
		return resultStyle.Render("Answer: " + res.Result.String())
	case ex.Implicit:
		return resultStyle.Render("Answer: " + o.calc.DifferentiateImplicit(cmd.Context(), ex.Expression, ex.Variable).Result)
	}
	return resultStyle.Render("Answer: " + o.calc.Differentiate(cmd.Context(), ex.Expression, ex.Variable, ex.Order).Result)
}

func newSimplifyCommand(opts *RootOptions) *cobra.Command {
	var latex bool
	cmd := &cobra.Command{
		Use:   "simplify EXPRESSION",
		Short: "Print the simplified form of an expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := strings.Join(args, " ")
			s, err := opts.calc.Simplify(src)
			if err != nil {
				return failure(err.Error())
			}
			out := map[string]string{"expression": src, "simplified": s}
			if latex {
				if out["latex"], err = opts.calc.LaTeX(src); err != nil {
					return failure(err.Error())
				}
			}
			if opts.out.format == "json" {
				return opts.out.json(out)
			}
			fmt.Fprintln(opts.out.w, s)
			if latex {
				fmt.Fprintln(opts.out.w, out["latex"])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&latex, "latex", false, "also print LaTeX")
	return cmd
}
