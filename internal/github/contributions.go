package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitaura/internal/aura"
)

// Contributions holds a user's contribution calendar and the auxiliary
// profile counts used elsewhere in the system
type Contributions struct {
	TotalContributions int
	ContributionDays   []aura.ContributionDay
	TotalIssues        int
	TotalPullRequests  int
	TotalRepositories  int
	TotalGists         int
	TotalFollowers     int
	TotalFollowing     int
	AccountAgeYears    int
	TotalStars         int
}

const contributionsQuery = `query($userName:String!) {
  user(login: $userName) {
    createdAt
    followers { totalCount }
    following { totalCount }
    issues(states: [OPEN, CLOSED]) { totalCount }
    pullRequests(states: MERGED) { totalCount }
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            contributionCount
            date
          }
        }
      }
    }
    repositories(privacy: PUBLIC, isFork: false, first: 100) {
      totalCount
      nodes { stargazerCount }
    }
    gists(privacy: PUBLIC) { totalCount }
  }
}`

type contributionsResponse struct {
	User *struct {
		CreatedAt time.Time `json:"createdAt"`
		Followers struct {
			TotalCount int `json:"totalCount"`
		} `json:"followers"`
		Following struct {
			TotalCount int `json:"totalCount"`
		} `json:"following"`
		Issues struct {
			TotalCount int `json:"totalCount"`
		} `json:"issues"`
		PullRequests struct {
			TotalCount int `json:"totalCount"`
		} `json:"pullRequests"`
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int `json:"totalContributions"`
				Weeks              []struct {
					ContributionDays []struct {
						ContributionCount int    `json:"contributionCount"`
						Date              string `json:"date"`
					} `json:"contributionDays"`
				} `json:"weeks"`
			} `json:"contributionCalendar"`
		} `json:"contributionsCollection"`
		Repositories struct {
			TotalCount int `json:"totalCount"`
			Nodes      []struct {
				StargazerCount int `json:"stargazerCount"`
			} `json:"nodes"`
		} `json:"repositories"`
		Gists struct {
			TotalCount int `json:"totalCount"`
		} `json:"gists"`
	} `json:"user"`
}

// FetchContributions fetches the trailing-year contribution calendar and
// profile counts for a username
func (c *Client) FetchContributions(ctx context.Context, username string) (*Contributions, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username is required")
	}

	var data contributionsResponse
	gqlErrors, err := c.doGraphQL(ctx, contributionsQuery, map[string]any{"userName": username}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions for %s: %w", username, err)
	}

	for _, gqlErr := range gqlErrors {
		if strings.Contains(gqlErr.Message, "Could not resolve to a User") ||
			strings.Contains(gqlErr.Message, "not found") {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
	}
	if len(gqlErrors) > 0 {
		return nil, fmt.Errorf("github graphql error for %s: %s", username, gqlErrors[0].Message)
	}

	if data.User == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	calendar := data.User.ContributionsCollection.ContributionCalendar

	var days []aura.ContributionDay
	for _, week := range calendar.Weeks {
		for _, d := range week.ContributionDays {
			date, err := time.ParseInLocation("2006-01-02", d.Date, time.UTC)
			if err != nil {
				c.logger.Warn("skipping contribution day with bad date", "username", username, "date", d.Date)
				continue
			}
			days = append(days, aura.ContributionDay{Date: date, Count: d.ContributionCount})
		}
	}

	totalStars := 0
	for _, repo := range data.User.Repositories.Nodes {
		totalStars += repo.StargazerCount
	}

	accountAge := 0
	if !data.User.CreatedAt.IsZero() {
		accountAge = int(time.Since(data.User.CreatedAt).Hours() / 24 / 365)
	}

	return &Contributions{
		TotalContributions: calendar.TotalContributions,
		ContributionDays:   days,
		TotalIssues:        data.User.Issues.TotalCount,
		TotalPullRequests:  data.User.PullRequests.TotalCount,
		TotalRepositories:  data.User.Repositories.TotalCount,
		TotalGists:         data.User.Gists.TotalCount,
		TotalFollowers:     data.User.Followers.TotalCount,
		TotalFollowing:     data.User.Following.TotalCount,
		AccountAgeYears:    accountAge,
		TotalStars:         totalStars,
	}, nil
}
