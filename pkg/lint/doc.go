// Package lint provides the rule framework shared by the stylesheet and
// script linters.
//
// # Architecture
//
//  1. Root package (pkg/lint/): sources, rule definitions, diagnostics, config and the analyzer
//  2. Stylesheet rules (pkg/lint/style/): SCSS checks, configured by .sass-lint.yml
//  3. Script rules (pkg/lint/script/): JavaScript checks, configured by .eslintrc.yml
//
// # Rule Registration
//
// Each rule package owns a Registry and fills it from init() functions:
//
//	func init() {
//		Registry.Register(NoImportant)
//	}
//
// # Running
//
//	cfg, err := lint.LoadConfig(".sass-lint.yml", style.Registry)
//	analyzer := lint.NewAnalyzer(style.Registry, cfg)
//	diags := analyzer.Analyze(lint.NewSource("src/assets/sass/theme.scss", content))
//	if lint.HasErrors(diags) { ... }
//
// Severities follow the config files: 1 (warn) reports, 2 (error) fails the
// lint task, 0 (off) disables the rule.
package lint
