// ABOUTME: Issue mapping from generator clause references to exact document locations
// ABOUTME: Unresolvable references go to an unmatched list; locations are never fabricated
package analysis

import "clauselens/internal/models"

// MapIssues resolves each issue's clause reference against the extracted
// clauses. Resolved issues receive the clause's verbatim body text and
// document offsets. Issues with an empty or unknown clause id are returned
// in the unmatched list exactly as the generator produced them.
func MapIssues(issues []models.Issue, clauses []models.Clause) (matched, unmatched []models.Issue) {
	byID := make(map[string]models.Clause, len(clauses))
	for _, clause := range clauses {
		byID[clause.ID] = clause
	}

	for _, issue := range issues {
		clause, ok := byID[issue.ClauseID]
		if !ok {
			unmatched = append(unmatched, issue)
			continue
		}
		issue.OriginalText = clause.Body
		issue.StartOffset = clause.StartOffset
		issue.EndOffset = clause.EndOffset
		matched = append(matched, issue)
	}
	return matched, unmatched
}
