package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/modeler"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// ModelerToolDeps contains dependencies for the model builder tools.
type ModelerToolDeps struct {
	Store     *modeler.Store
	Analyzer  *modeler.Analyzer
	Fragments *modeler.FragmentSet
	Logger    *zap.Logger
}

// RegisterModelerTools registers the staged data-model builder tools.
func RegisterModelerTools(s *server.MCPServer, deps *ModelerToolDeps) {
	registerStartSessionTool(s, deps)
	registerSessionStatusTool(s, deps)
	registerListSessionsTool(s, deps)
	registerResetSessionTool(s, deps)
	registerAnalyzeTool(s, deps)
	registerSelectModelTypeTool(s, deps)
	registerUpdateConfigTool(s, deps)
	registerBuildStageTool(s, deps)
	registerApproveStageTool(s, deps)
	registerGoBackTool(s, deps)
	registerGetScriptTool(s, deps)
	registerExportTool(s, deps)
}

func registerStartSessionTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"start_model_session",
		mcp.WithDescription(
			"Start a new model builder session for a project. Any previous session and all of its "+
				"analysis and stage state is discarded. Required before any other model builder tool.",
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Name of the project the data model belongs to"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Start(getString(req, "project_name"))
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Started model builder session %s for project %q. Next: submit tables and sampled statistics with analyze_data_model.",
			session.ID, session.ProjectName)), nil
	})
}

func registerSessionStatusTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"get_session_status",
		mcp.WithDescription("Get a human-readable summary of the active model builder session: project, analysis state, model type, and stage progress."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(deps.Store.Status()), nil
	})
}

func registerListSessionsTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"list_model_sessions",
		mcp.WithDescription("List model builder sessions known to this server, newest first. Best-effort: sessions do not survive a restart."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessions := deps.Store.List()
		if len(sessions) == 0 {
			return mcp.NewToolResultText("No sessions recorded."), nil
		}
		var b strings.Builder
		for _, session := range sessions {
			fmt.Fprintf(&b, "%s  %-10s %s (created %s)\n",
				session.ID, session.Status, session.ProjectName,
				session.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func registerResetSessionTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"reset_model_session",
		mcp.WithDescription("Tear down the active session and everything it owns: analysis, model type selection, and all stage artifacts."),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, err := deps.Store.Reset()
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Session for project %q has been reset.", project)), nil
	})
}

func registerAnalyzeTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"analyze_data_model",
		mcp.WithDescription(
			"Submit the raw table/field specification plus sampled statistics for analysis. "+
				"Classifies each table (fact, dimension, bridge, lookup, calendar), resolves the relationship "+
				"graph, and recommends a modeling pattern. Replaces any prior analysis in the session.",
		),
		mcp.WithArray("tables",
			mcp.Required(),
			mcp.Description(`Table declarations: [{"name","source_name","fields":[{"name","type"}]}]`),
		),
		mcp.WithArray("sampled_stats",
			mcp.Required(),
			mcp.Description(`Per-table sampled statistics: [{"table_name","row_count","fields":[{"name","type","cardinality","null_percent","sample_values"}]}]`),
		),
		mcp.WithArray("relationship_hints",
			mcp.Description(`Optional declared relationships: [{"from":"Orders.CustomerID","to":"Customers.CustomerID","type":"many-to-one"}]`),
		),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		input, stats, err := parseAnalyzeArgs(req)
		if err != nil {
			return errorResult(err), nil
		}

		result, err := session.ProcessInput(deps.Analyzer, input, stats)
		if err != nil {
			return errorResult(err), nil
		}

		return mcp.NewToolResultText(formatAnalysis(result)), nil
	})
}

// parseAnalyzeArgs decodes the analyze_data_model payload, tolerating
// stringified arrays.
func parseAnalyzeArgs(req mcp.CallToolRequest) (*models.TableInput, []models.SampledStats, error) {
	args := requestArgs(req)

	tablesRaw, err := extractArrayParam(args, "tables")
	if err != nil {
		return nil, nil, apperrors.NewValidation("%s", err.Error())
	}
	statsRaw, err := extractArrayParam(args, "sampled_stats")
	if err != nil {
		return nil, nil, apperrors.NewValidation("%s", err.Error())
	}
	hintsRaw, err := extractArrayParam(args, "relationship_hints")
	if err != nil {
		return nil, nil, apperrors.NewValidation("%s", err.Error())
	}

	input := &models.TableInput{}
	if err := decodeParam(tablesRaw, &input.Tables); err != nil {
		return nil, nil, apperrors.NewValidation("invalid tables payload: %s", err.Error())
	}
	if err := decodeParam(hintsRaw, &input.Hints); err != nil {
		return nil, nil, apperrors.NewValidation("invalid relationship_hints payload: %s", err.Error())
	}

	var stats []models.SampledStats
	if err := decodeParam(statsRaw, &stats); err != nil {
		return nil, nil, apperrors.NewValidation("invalid sampled_stats payload: %s", err.Error())
	}

	return input, stats, nil
}

// formatAnalysis renders the analysis result for an operator.
func formatAnalysis(result *models.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("Analysis complete.\n\nTables:\n")
	for _, t := range result.Tables {
		fmt.Fprintf(&b, "  %-24s %-10s confidence %.2f (%d rows)\n",
			t.Table, t.Classification, t.Confidence, t.RowCount)
	}

	if len(result.Relationships) > 0 {
		b.WriteString("\nRelationships:\n")
		for _, rel := range result.Relationships {
			fmt.Fprintf(&b, "  %s.%s -> %s.%s (%s, %s, confidence %.2f)\n",
				rel.ChildTable, rel.ChildField, rel.ParentTable, rel.ParentField,
				rel.Cardinality, rel.Source, rel.Confidence)
		}
	}

	for _, u := range result.Unresolved {
		fmt.Fprintf(&b, "\nUnresolved: %s", u)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}

	fmt.Fprintf(&b, "\nRecommended model type: %s (confidence %.2f)\nRationale: %s\n",
		result.Recommendation.ModelType, result.Recommendation.Confidence, result.Recommendation.Rationale)
	b.WriteString("\nNext: confirm the pattern with select_model_type.")

	return b.String()
}

func registerSelectModelTypeTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"select_model_type",
		mcp.WithDescription(
			"Confirm the modeling pattern for the session (star_schema, snowflake, link_table, normalized). "+
				"May differ from the recommendation. Selecting a model type clears any existing stage builds.",
		),
		mcp.WithString("model_type",
			mcp.Required(),
			mcp.Description("One of: star_schema, snowflake, link_table, normalized"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		modelType := getString(req, "model_type")
		if err := session.SelectModelType(modelType); err != nil {
			return errorResult(err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Model type set to %s. Stage artifacts cleared; start building with build_model_stage (stage A).",
			modelType)), nil
	})
}

func registerUpdateConfigTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"update_model_config",
		mcp.WithDescription(
			"Merge script-generation options into the session config. Recognized keys: destination_path, "+
				"calendar_language (en, de, fr, es, sv), date_format. Unrecognized keys are ignored. "+
				"Analysis and stage state are not touched.",
		),
		mcp.WithString("destination_path", mcp.Description("Data connection path for generated LOAD/STORE statements")),
		mcp.WithString("calendar_language", mcp.Description("Language for calendar labels")),
		mcp.WithString("date_format", mcp.Description("Script-level date format, e.g. YYYY-MM-DD")),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		cfg, applied, err := session.UpdateConfig(requestArgs(req))
		if err != nil {
			return errorResult(err), nil
		}

		if len(applied) == 0 {
			return mcp.NewToolResultText("No recognized configuration keys supplied; nothing changed."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Applied %s. Current config: destination_path=%s calendar_language=%s date_format=%s",
			strings.Join(applied, ", "), cfg.DestinationPath, cfg.CalendarLanguage, cfg.DateFormat)), nil
	})
}

func registerBuildStageTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"build_model_stage",
		mcp.WithDescription(
			"Generate the script fragment for a stage (A=Configuration, B=Dimensions, C=Facts, D=Calendar, "+
				"E=Bridge Tables, F=Final Assembly). Without a stage argument the current stage is built. "+
				"Requires a selected model type. Re-building overwrites the unapproved draft.",
		),
		mcp.WithString("stage", mcp.Description("Stage to build (A-F); defaults to the current stage")),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		artifact, err := session.Build(getString(req, "stage"), deps.Fragments)
		if err != nil {
			return errorResult(err), nil
		}

		deps.Logger.Info("stage built",
			zap.String("project", session.ProjectName),
			zap.String("stage", string(artifact.StageID)))

		return mcp.NewToolResultText(fmt.Sprintf(
			"Built stage %s (%s). Review the draft below, then approve_model_stage to lock it in.\n\n%s",
			artifact.StageID, artifact.Name, artifact.Script)), nil
	})
}

func registerApproveStageTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"approve_model_stage",
		mcp.WithDescription(
			"Approve the current stage and advance to the next one. The stage must have been built since the "+
				"last invalidating change. Approving stage F completes the pipeline.",
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		stageID, progress, complete, err := session.Approve()
		if err != nil {
			return errorResult(err), nil
		}

		if complete {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Approved stage %s. Pipeline complete (%d%%). Retrieve the script with get_model_script or hand it off with export_data_model.",
				stageID, progress)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Approved stage %s (progress %d%%). Next stage is ready to build.", stageID, progress)), nil
	})
}

func registerGoBackTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"go_back_to_stage",
		mcp.WithDescription(
			"Return to an earlier stage. The target keeps its draft but loses approval; every later stage is "+
				"discarded entirely, since downstream fragments may depend on upstream decisions.",
		),
		mcp.WithString("stage",
			mcp.Required(),
			mcp.Description("Stage to return to (A-F); must not be ahead of the current stage"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		stageID, err := session.GoBack(getString(req, "stage"))
		if err != nil {
			return errorResult(err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Returned to stage %s. Later stages were discarded; rebuild from here.", stageID)), nil
	})
}

func registerGetScriptTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"get_model_script",
		mcp.WithDescription("Get the assembled script: the ordered concatenation of all approved stage fragments. Unapproved drafts are excluded."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		script, err := session.Script()
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(script), nil
	})
}

func registerExportTool(s *server.MCPServer, deps *ModelerToolDeps) {
	tool := mcp.NewTool(
		"export_data_model",
		mcp.WithDescription(
			"Package the approved pipeline output into an immutable handoff snapshot for deployment: model "+
				"type, assembled script, and an analysis summary. Does not change pipeline state; may be called repeatedly.",
		),
		mcp.WithBoolean("include_manifest",
			mcp.Description("If true, prepend a YAML manifest of the snapshot metadata (default: true)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := deps.Store.Active()
		if err != nil {
			return errorResult(err), nil
		}

		bundle, err := session.Export()
		if err != nil {
			return errorResult(err), nil
		}

		includeManifest := true
		if val, ok := getOptionalBool(req, "include_manifest"); ok {
			includeManifest = val
		}

		if !includeManifest {
			return jsonResult(bundle), nil
		}

		manifest, err := modeler.ExportManifest(bundle)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Export manifest\n%s\n# Assembled script\n%s", manifest, bundle.AssembledScript)), nil
	})
}
