package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/mbolis/quick-event/config"
	"github.com/mbolis/quick-event/wizard"
)

const (
	formsAPI   = "https://forms.googleapis.com/v1"
	formsScope = "https://www.googleapis.com/auth/forms.responses.readonly"
	bodyScope  = "https://www.googleapis.com/auth/forms.body.readonly"
)

// GoogleOAuth builds the OAuth client configuration for Google Forms.
func GoogleOAuth(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{bodyScope, formsScope},
	}
}

// GoogleForms reads form structure and responses from the Google Forms API.
type GoogleForms struct {
	oauth   *oauth2.Config
	baseURL string
}

var _ wizard.SourceCatalog = (*GoogleForms)(nil)

func NewGoogleForms(oauth *oauth2.Config) *GoogleForms {
	return &GoogleForms{oauth: oauth, baseURL: formsAPI}
}

// WithBaseURL points the client at another API root.
func (g *GoogleForms) WithBaseURL(baseURL string) *GoogleForms {
	return &GoogleForms{oauth: g.oauth, baseURL: strings.TrimSuffix(baseURL, "/")}
}

type form struct {
	FormID string `json:"formId"`
	Info   struct {
		Title         string `json:"title"`
		DocumentTitle string `json:"documentTitle"`
	} `json:"info"`
	Items []struct {
		ItemID       string `json:"itemId"`
		Title        string `json:"title"`
		QuestionItem *struct {
			Question struct {
				QuestionID string `json:"questionId"`
			} `json:"question"`
		} `json:"questionItem"`
	} `json:"items"`
}

// questions maps question ids to their titles, in form order.
func (f form) questions() (ids []string, titles map[string]string) {
	titles = map[string]string{}
	for _, item := range f.Items {
		if item.QuestionItem == nil {
			continue
		}
		id := item.QuestionItem.Question.QuestionID
		ids = append(ids, id)
		titles[id] = item.Title
	}
	return
}

type responsePage struct {
	Responses []struct {
		ResponseID        string    `json:"responseId"`
		LastSubmittedTime time.Time `json:"lastSubmittedTime"`
		RespondentEmail   string    `json:"respondentEmail"`
		Answers           map[string]struct {
			TextAnswers struct {
				Answers []struct {
					Value string `json:"value"`
				} `json:"answers"`
			} `json:"textAnswers"`
		} `json:"answers"`
	} `json:"responses"`
	NextPageToken string `json:"nextPageToken"`
}

// Response is one submitted form, answers keyed by question title.
type Response struct {
	ID              string
	RespondentEmail string
	SubmittedAt     time.Time
	Answers         map[string]string
}

func (g *GoogleForms) Describe(ctx context.Context, token *oauth2.Token, formID string) (wizard.Source, error) {
	client := g.oauth.Client(ctx, token)

	f, err := g.form(ctx, client, formID)
	if err != nil {
		return wizard.Source{}, err
	}

	ids, titles := f.questions()
	src := wizard.Source{ID: f.FormID, Title: f.Info.Title, Fields: make([]string, 0, len(ids))}
	if src.Title == "" {
		src.Title = f.Info.DocumentTitle
	}
	for _, id := range ids {
		src.Fields = append(src.Fields, titles[id])
	}
	return src, nil
}

// Responses fetches every response of a form. The returned token is the
// one in use after the calls, refreshed if it had expired.
func (g *GoogleForms) Responses(ctx context.Context, token *oauth2.Token, formID string) ([]Response, *oauth2.Token, error) {
	ts := g.oauth.TokenSource(ctx, token)
	client := oauth2.NewClient(ctx, ts)

	f, err := g.form(ctx, client, formID)
	if err != nil {
		return nil, nil, err
	}
	_, titles := f.questions()

	var responses []Response
	pageToken := ""
	for {
		path := "/forms/" + url.PathEscape(formID) + "/responses"
		if pageToken != "" {
			path += "?pageToken=" + url.QueryEscape(pageToken)
		}

		var page responsePage
		if err = g.get(ctx, client, path, &page); err != nil {
			return nil, nil, err
		}

		for _, r := range page.Responses {
			resp := Response{
				ID:              r.ResponseID,
				RespondentEmail: r.RespondentEmail,
				SubmittedAt:     r.LastSubmittedTime,
				Answers:         map[string]string{},
			}
			for qid, a := range r.Answers {
				title, ok := titles[qid]
				if !ok {
					continue
				}
				values := make([]string, 0, len(a.TextAnswers.Answers))
				for _, v := range a.TextAnswers.Answers {
					values = append(values, v.Value)
				}
				resp.Answers[title] = strings.Join(values, ", ")
			}
			responses = append(responses, resp)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	current, err := ts.Token()
	if err != nil {
		return nil, nil, err
	}
	return responses, current, nil
}

func (g *GoogleForms) form(ctx context.Context, client *http.Client, formID string) (f form, err error) {
	err = g.get(ctx, client, "/forms/"+url.PathEscape(formID), &f)
	return
}

func (g *GoogleForms) get(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("google forms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("google forms: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
