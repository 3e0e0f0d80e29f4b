package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
)

type rowView struct {
	Index int
	Name  string
	Email string
}

type entryPage struct {
	Title string
	Rows  []rowView
}

type batchOption struct {
	Name    string
	Checked bool
}

type batchesPage struct {
	Title    string
	Batches  []batchOption
	Selected []string
}

type importPage struct {
	Title    string
	Selected []string
}

type messageView struct {
	Level string
	Text  string
}

type entryForm struct {
	Employees []employeeimport.RowInput `form:"employees"`
}

var messages = map[string]messageView{
	"saved":    {Level: "success", Text: employeeimport.MessageSaved},
	"imported": {Level: "success", Text: employeeimport.MessageImported},
	"empty":    {Level: "warning", Text: employeeimport.MessageEmpty},
}

func (s *Server) entryPage(c *gin.Context) {
	c.HTML(http.StatusOK, "entry", entryPage{Title: "New employees", Rows: []rowView{{Index: 0}}})
}

func (s *Server) addRow(c *gin.Context) {
	index := 0
	if raw := c.PostForm("next_index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "next_index must be a non-negative integer"})
			return
		}
		index = n
	}

	html, err := s.renderFragment("row", rowView{Index: index})
	if err != nil {
		s.fail(c, err)
		return
	}
	commands(c, http.StatusOK, new(CommandList).Append(".employees", html))
}

func (s *Server) saveBatch(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	var in entryForm
	if err := s.decoder.Decode(&in, c.Request.PostForm); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	_, err := s.imports.SaveBatch(c.Request.Context(), employeeimport.SaveBatchInput{
		SessionID: sessionID(c),
		Rows:      in.Employees,
	})
	var verr *employeeimport.ValidationError
	if errors.As(err, &verr) {
		msgs := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			msgs = append(msgs, fieldMessage(f))
		}
		s.validationErrors(c, msgs)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	row, err := s.renderFragment("row", rowView{Index: 0})
	if err != nil {
		s.fail(c, err)
		return
	}
	commands(c, http.StatusOK, new(CommandList).
		Replace(".validation-errors", "").
		Replace(".employees", row).
		Invoke(".csv-saved", "click"))
}

func (s *Server) batchesPage(c *gin.Context) {
	ctx := c.Request.Context()
	names, err := s.imports.Batches(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	selected, err := s.imports.Selection(ctx, sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		chosen[name] = struct{}{}
	}
	options := make([]batchOption, 0, len(names))
	for _, name := range names {
		_, ok := chosen[name]
		options = append(options, batchOption{Name: name, Checked: ok})
	}
	c.HTML(http.StatusOK, "batches", batchesPage{Title: "Choose CSVs", Batches: options, Selected: selected})
}

func (s *Server) chooseBatches(c *gin.Context) {
	selected, err := s.imports.ChooseBatches(c.Request.Context(), employeeimport.ChooseBatchesInput{
		SessionID: sessionID(c),
		Batches:   c.PostFormArray("csvs"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	html, err := s.renderFragment("csv_list", selected)
	if err != nil {
		s.fail(c, err)
		return
	}
	commands(c, http.StatusOK, new(CommandList).Replace(".csv-list", html))
}

func (s *Server) importPage(c *gin.Context) {
	selected, err := s.imports.Selection(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "import", importPage{Title: "Import employees", Selected: selected})
}

func (s *Server) runImport(c *gin.Context) {
	res, err := s.imports.RunImport(c.Request.Context(), employeeimport.RunImportInput{SessionID: sessionID(c)})
	if err != nil {
		s.fail(c, err)
		return
	}
	if res.Outcome == employeeimport.OutcomeStale {
		s.validationErrors(c, []string{res.Outcome.Message()})
		return
	}

	list, err := s.renderFragment("csv_list", []string{})
	if err != nil {
		s.fail(c, err)
		return
	}
	out := new(CommandList).
		Replace(".validation-errors", "").
		Replace(".csv-list", list)

	if res.Outcome == employeeimport.OutcomeEmpty {
		commands(c, http.StatusOK, out.Replace(".import-result", "").Invoke(".csv-empty-import", "click"))
		return
	}

	result, err := s.renderFragment("import_result", res)
	if err != nil {
		s.fail(c, err)
		return
	}
	commands(c, http.StatusOK, out.Replace(".import-result", result).Invoke(".csv-imported", "click"))
}

func (s *Server) message(c *gin.Context) {
	msg, ok := messages[c.Param("kind")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown message"})
		return
	}
	c.HTML(http.StatusOK, "message", msg)
}

// validationErrors は入力エラー一覧を 422 で返します。
func (s *Server) validationErrors(c *gin.Context, msgs []string) {
	html, err := s.renderFragment("validation_errors", msgs)
	if err != nil {
		s.fail(c, err)
		return
	}
	commands(c, http.StatusUnprocessableEntity, new(CommandList).Replace(".validation-errors", html))
}
