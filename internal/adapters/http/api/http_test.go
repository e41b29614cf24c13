package api_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfil/internal/adapters/http/api"
	service "github.com/okian/perfil/internal/app"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func postStudent(mux *http.ServeMux, id, name string) {
	w := do(mux, http.MethodPost, "/students",
		`{"id":"`+id+`","org_id":"org1","class_id":"c1","name":"`+name+`","age":14}`)
	So(w.Code, ShouldEqual, http.StatusOK)
}

func postResponses(mux *http.ServeMux, id string) {
	rs, err := profiletest.Responses(id, profiletest.Default())
	So(err, ShouldBeNil)
	for _, inst := range model.Instruments {
		b, err := json.Marshal(map[string]any{
			"student_id": id,
			"instrument": inst,
			"answers":    rs[inst].Answers,
		})
		So(err, ShouldBeNil)
		w := do(mux, http.MethodPost, "/responses", string(b))
		So(w.Code, ShouldEqual, http.StatusCreated)
	}
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("Then health, metrics and stats are served", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/metrics", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["started"], ShouldEqual, true)
		})

		Convey("When a student payload is invalid", func() {
			w := do(mux, http.MethodPost, "/students", `{"id":"s1","org_id":"org1","class_id":"c1","age":300}`)

			Convey("Then field errors are reported by JSON name", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeBody(w)
				So(body["code"], ShouldEqual, "bad_request")
				fields := body["fields"].(map[string]any)
				So(fields, ShouldContainKey, "name")
				So(fields, ShouldContainKey, "age")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/students", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a student completes the survey", func() {
			postStudent(mux, "s1", "Ana")
			postResponses(mux, "s1")

			Convey("Then the student record is completed", func() {
				w := do(mux, http.MethodGet, "/students/s1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["quiz_status"], ShouldEqual, "completed")
			})

			Convey("Then a resubmission conflicts", func() {
				rs, _ := profiletest.Responses("s1", profiletest.Default())
				b, _ := json.Marshal(map[string]any{"student_id": "s1", "instrument": "vark", "answers": rs[model.VARK].Answers})
				w := do(mux, http.MethodPost, "/responses", string(b))
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeBody(w)["code"], ShouldEqual, "already_submitted")
			})

			Convey("Then profile, insights and report are served", func() {
				w := do(mux, http.MethodGet, "/students/s1/profile", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["vark"].(map[string]any)["status"], ShouldEqual, "complete")

				w = do(mux, http.MethodGet, "/students/s1/insights", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["mind"], ShouldNotBeEmpty)

				w = do(mux, http.MethodGet, "/students/s1/report", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["dimensions"], ShouldHaveLength, 4)
			})

			Convey("Then a report email is queued", func() {
				w := do(mux, http.MethodPost, "/students/s1/report/email", `{"to":"teacher@example.com"}`)
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decodeBody(w)["job_id"], ShouldNotBeEmpty)

				w = do(mux, http.MethodPost, "/students/s1/report/email", `{"to":"not-an-address"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then class views are served", func() {
				w := do(mux, http.MethodGet, "/classes/c1/aggregate", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["class_id"], ShouldEqual, "c1")
				So(body["size"], ShouldEqual, float64(1))

				w = do(mux, http.MethodGet, "/classes/c1/summary", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["summary"], ShouldStartWith, "Class of 1 student.")

				w = do(mux, http.MethodPost, "/classes/c1/advice", `{"plan":"Fractions intro"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["text"], ShouldContainSubstring, "Class of 1 student.")

				w = do(mux, http.MethodPost, "/classes/c1/rewrite", `{"plan":"Fractions intro"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["text"], ShouldStartWith, "Fractions intro")
			})

			Convey("Then the class exports as CSV", func() {
				w := do(mux, http.MethodGet, "/classes/c1/export.csv?columns=id,name,vark", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				rows, err := csv.NewReader(w.Body).ReadAll()
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, [][]string{{"ID", "Name", "Learning style"}, {"s1", "Ana", "Visual"}})

				w = do(mux, http.MethodGet, "/classes/c1/export.csv?columns=id,shoe_size", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When custom fields are declared and used", func() {
			w := do(mux, http.MethodPut, "/orgs/org1/custom-fields", `{"fields":[{"key":"hobby","label":"Hobby"}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			w = do(mux, http.MethodPost, "/students",
				`{"id":"s2","org_id":"org1","class_id":"c2","name":"Bia","custom_fields":{"hobby":"chess, \"blitz\""}}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the custom column round-trips through CSV", func() {
				w := do(mux, http.MethodGet, "/classes/c2/export.csv?columns=name,custom:hobby", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				rows, err := csv.NewReader(w.Body).ReadAll()
				So(err, ShouldBeNil)
				So(rows[1], ShouldResemble, []string{"Bia", `chess, "blitz"`})
			})
		})

		Convey("When a class id carries quotes and separators", func() {
			w := do(mux, http.MethodPost, "/students",
				`{"id":"s3","org_id":"org1","class_id":"c1\"; x=y","name":"Caio","age":14}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the download filename stays a single quoted parameter", func() {
				w := do(mux, http.MethodGet, "/classes/c1%22%3B%20x%3Dy/export.csv?columns=id", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
				So(err, ShouldBeNil)
				So(disposition, ShouldEqual, "attachment")
				So(params, ShouldResemble, map[string]string{"filename": `c1"; x=y.csv`})
			})
		})

		Convey("When unknown records are requested", func() {
			So(do(mux, http.MethodGet, "/students/ghost/profile", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/students/ghost/report/email", `{"to":"t@example.com"}`).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a route is called with the wrong method", func() {
			So(do(mux, http.MethodDelete, "/students/s1/profile", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		mux := newMux(service.New())

		Convey("Then reads are unavailable", func() {
			w := do(mux, http.MethodGet, "/classes/c1/summary", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}
