package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeAnalyzeTree() string {
	return `Builds a hierarchical structural report of a Python codebase: directories,
files, classes, and every function or method with its metrics.

USE WHEN:
- Getting oriented in an unfamiliar Python codebase
- Identifying oversized or overly complex functions before a refactor
- Comparing the shape of the code at two revisions (use the ref parameter)
- Feeding precise per-unit metrics into a review or planning task

INTERPRETING RESULTS:
- cyclomatic_complexity 1 means straight-line code; each if/for/while/except
  branch adds one. Above 10 a function is hard to test, above 20 it is a
  strong refactoring candidate
- lines counts the unit's full definition span; statements and expressions
  gauge its density
- parameters above 5 suggests the function is doing too many jobs
- metrics.duplication, when present, names the unit's closest counterpart
  elsewhere and a 0.0-1.0 similarity score; near 1.0 is copy-paste
- the summary block aggregates the corpus: mean/p90/max complexity and how
  many units have a duplication partner
- skipped lists files excluded for syntax errors; warnings lists inputs
  that were not Python files

METRICS RETURNED:
- Per-unit: lines, statements, expressions, expression_statements,
  cyclomatic_complexity, parameters, duplication (score, other, lines_other)
- Per-node: name, nodetype, path, qualname, lineno, end_lineno, docstring
- Summary: directories, files, classes, functions, methods, units,
  unit_lines, mean/p90/max complexity, duplicates, max_duplication_score`
}

func describeFindDuplicates() string {
	return `Finds near-duplicate functions and methods across a Python codebase and
lists the best-matching pairs, most similar first.

USE WHEN:
- Hunting copy-paste code to consolidate into shared helpers
- Checking whether a bug fix needs to be applied in more than one place
- Auditing a codebase for drift between parallel implementations
- Scoping deduplication work before estimating a refactor

INTERPRETING RESULTS:
- score is a 0.0-1.0 character-level similarity of the two definitions;
  1.0 is byte-identical, above 0.95 usually differs only in literals or
  names, 0.8-0.95 indicates shared structure worth reviewing
- each unit reports only its single closest counterpart, so a family of
  N copies surfaces as N rows pointing into the family rather than all
  N*(N-1)/2 combinations
- matching is literal-insensitive: renamed constants and reworded strings
  do not hide a duplicate
- very short units (under roughly 25 tokens) are never matched; trivial
  getters will not appear
- matched counts units with a partner; units is the corpus size, so
  matched/units is the duplication rate

METRICS RETURNED:
- Per-pair: unit, path, lines, score, other, lines_other
- Totals: matched, units`
}
