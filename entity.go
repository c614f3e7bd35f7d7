package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zentty-go/pkg/zentty"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreate,
	}

	addContentFlags(cmd)
	addPlacementFlags(cmd)
	cmd.Flags().String("scope", "", "scope entity ID")
	cmd.Flags().String("parent", "", "parent entity ID")

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity-id>",
		Short: "Display an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
}

func newModifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modify <entity-id>",
		Short: "Change an entity's content or position",
		Long: `Change an entity's content or its position among its siblings.
Only the given content flags are sent; omit all of them to reorder only.`,
		Args: cobra.ExactArgs(1),
		RunE: runModify,
	}

	addContentFlags(cmd)
	addPlacementFlags(cmd)

	return cmd
}

func newRelateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relate <source-id> <target-id> <relationship>",
		Short: "Add a labeled relationship between two entities",
		Args:  cobra.ExactArgs(3),
		RunE:  runRelate,
	}

	cmd.Flags().String("metadata", "", "relationship metadata as JSON")
	addPlacementFlags(cmd)

	return cmd
}

func newUnrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate <source-id> <target-id> <relationship>",
		Short: "Remove a relationship between two entities",
		Args:  cobra.ExactArgs(3),
		RunE:  runUnrelate,
	}
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <parent-id>",
		Short: "List the children of an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().String("type", "", "only children of this type")
	addPagingFlags(cmd)

	return cmd
}

func newRelatedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "related <source-id> <relationship>",
		Short: "List entities related to an entity",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelated,
	}

	cmd.Flags().String("type", "", "only related entities of this type")
	cmd.Flags().String("direction", zentty.DirectionTarget, "edge direction: target or source")
	addPagingFlags(cmd)

	return cmd
}

func addContentFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "entity title")
	cmd.Flags().String("body", "", "entity body as JSON")
	cmd.Flags().String("metadata", "", "entity metadata as JSON")
}

func addPlacementFlags(cmd *cobra.Command) {
	cmd.Flags().String("before", "", "place before this sibling")
	cmd.Flags().String("after", "", "place after this sibling")
}

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of results (0 = server default)")
	cmd.Flags().Int("offset", 0, "number of results to skip")
}

// contentFromFlags builds an EntityInput from the flags the user set.
// Returns nil when none were set.
func contentFromFlags(cmd *cobra.Command) (*zentty.EntityInput, error) {
	var (
		in  zentty.EntityInput
		set bool
	)

	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		in.Title = &title
		set = true
	}

	body, err := jsonFlag(cmd, "body")
	if err != nil {
		return nil, err
	}

	metadata, err := jsonFlag(cmd, "metadata")
	if err != nil {
		return nil, err
	}

	if body != nil || metadata != nil {
		in.Body = body
		in.Metadata = metadata
		set = true
	}

	if !set {
		return nil, nil //nolint:nilnil // nil input = leave content unchanged
	}

	return &in, nil
}

// jsonFlag returns the named flag as raw JSON, or nil when unset.
func jsonFlag(cmd *cobra.Command, name string) (json.RawMessage, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}

	s, _ := cmd.Flags().GetString(name)
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("--%s: invalid JSON", name)
	}

	return json.RawMessage(s), nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	content, err := contentFromFlags(cmd)
	if err != nil {
		return err
	}

	params := zentty.CreateEntityParams{Type: args[0]}
	if content != nil {
		params.Entity = *content
	}

	params.ScopeID, _ = cmd.Flags().GetString("scope")
	params.ParentEntityID, _ = cmd.Flags().GetString("parent")
	params.PlaceBeforeID, _ = cmd.Flags().GetString("before")
	params.PlaceAfterID, _ = cmd.Flags().GetString("after")

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	entity, err := client.CreateEntity(ctx, params)
	if err != nil {
		return fmt.Errorf("creating %s: %w", args[0], err)
	}

	cc.Logger.Info("entity created", "id", entity.ID, "type", entity.Type)

	return printEntity(cc, entity)
}

func runGet(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	entity, err := client.GetEntity(ctx, zentty.GetEntityParams{ID: args[0]})
	if err != nil {
		return fmt.Errorf("fetching %s: %w", args[0], err)
	}

	if entity.ID == "" {
		return fmt.Errorf("entity %s not found", args[0])
	}

	return printEntity(cc, entity)
}

func runModify(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	content, err := contentFromFlags(cmd)
	if err != nil {
		return err
	}

	params := zentty.ModifyEntityParams{ID: args[0], Entity: content}
	params.PlaceBeforeID, _ = cmd.Flags().GetString("before")
	params.PlaceAfterID, _ = cmd.Flags().GetString("after")

	if content == nil && params.PlaceBeforeID == "" && params.PlaceAfterID == "" {
		return errors.New("nothing to modify: give content flags or --before/--after")
	}

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	entity, err := client.ModifyEntity(ctx, params)
	if err != nil {
		return fmt.Errorf("modifying %s: %w", args[0], err)
	}

	return printEntity(cc, entity)
}

func runRelate(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	metadata, err := jsonFlag(cmd, "metadata")
	if err != nil {
		return err
	}

	params := zentty.RelateEntityParams{
		SourceEntityID: args[0],
		TargetEntityID: args[1],
		Relationship:   args[2],
		Metadata:       metadata,
	}
	params.PlaceBeforeID, _ = cmd.Flags().GetString("before")
	params.PlaceAfterID, _ = cmd.Flags().GetString("after")

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	ok, err := client.RelateEntity(ctx, params)
	if err != nil {
		return fmt.Errorf("relating %s to %s: %w", args[0], args[1], err)
	}

	return printOutcome(cc, ok, "Related %s -[%s]-> %s.\n", args[0], args[2], args[1])
}

func runUnrelate(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	ok, err := client.UnrelateEntity(ctx, zentty.UnrelateEntityParams{
		SourceEntityID: args[0],
		TargetEntityID: args[1],
		Relationship:   args[2],
	})
	if err != nil {
		return fmt.Errorf("unrelating %s from %s: %w", args[0], args[1], err)
	}

	return printOutcome(cc, ok, "Unrelated %s -[%s]-> %s.\n", args[0], args[2], args[1])
}

func runLs(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	params := zentty.GetEntitiesParams{ParentID: args[0]}
	params.ChildType, _ = cmd.Flags().GetString("type")
	params.Limit, _ = cmd.Flags().GetInt("limit")
	params.Offset, _ = cmd.Flags().GetInt("offset")

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	list, err := client.GetEntities(ctx, params)
	if err != nil {
		return fmt.Errorf("listing children of %s: %w", args[0], err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, list)
	}

	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		rows = append(rows, entityRow(&list.Items[i]))
	}

	printTable(cc.Out, entityHeaders, rows)
	cc.Statusf("%d of %d shown\n", len(list.Items), list.Result.Total)

	return nil
}

func runRelated(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	params := zentty.GetRelatedEntitiesParams{SourceEntityID: args[0], Relationship: args[1]}
	params.Type, _ = cmd.Flags().GetString("type")
	params.Direction, _ = cmd.Flags().GetString("direction")
	params.Limit, _ = cmd.Flags().GetInt("limit")
	params.Offset, _ = cmd.Flags().GetInt("offset")

	if params.Direction != zentty.DirectionTarget && params.Direction != zentty.DirectionSource {
		return fmt.Errorf("--direction: must be %q or %q, got %q",
			zentty.DirectionTarget, zentty.DirectionSource, params.Direction)
	}

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	list, err := client.GetRelatedEntities(ctx, params)
	if err != nil {
		return fmt.Errorf("listing %s relationships of %s: %w", args[1], args[0], err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, list)
	}

	headers := append([]string{"POSITION"}, entityHeaders...)
	rows := make([][]string, 0, len(list.Items))

	for i := range list.Items {
		item := &list.Items[i]
		pos := strconv.FormatFloat(item.Position, 'g', -1, 64)
		rows = append(rows, append([]string{pos}, entityRow(&item.TargetEntity)...))
	}

	printTable(cc.Out, headers, rows)
	cc.Statusf("%d of %d shown\n", len(list.Items), list.Result.Total)

	return nil
}

var entityHeaders = []string{"ID", "TYPE", "TITLE", "SIZE", "CREATED"}

func entityRow(e *zentty.Entity) []string {
	size := "-"
	if e.File != nil {
		size = formatSize(e.File.Filesize)
	}

	return []string{e.ID, e.Type, e.Title, size, formatTime(e.CreatedAt.Time)}
}

func printEntity(cc *CLIContext, e *zentty.Entity) error {
	if cc.Flags.JSON {
		return printJSON(cc.Out, e)
	}

	fmt.Fprintf(cc.Out, "ID:       %s\n", e.ID)
	fmt.Fprintf(cc.Out, "Type:     %s\n", e.Type)
	fmt.Fprintf(cc.Out, "Title:    %s\n", e.Title)
	fmt.Fprintf(cc.Out, "Created:  %s\n", formatTime(e.CreatedAt.Time))

	if e.CreatedBy != nil {
		fmt.Fprintf(cc.Out, "Owner:    %s\n", e.CreatedBy.Username)
	}

	if e.Archived {
		fmt.Fprintf(cc.Out, "Archived: yes\n")
	}

	if e.File != nil {
		fmt.Fprintf(cc.Out, "File:     %s (%s, %s)\n", e.File.Filename, formatSize(e.File.Filesize), e.File.Status)
	}

	if len(e.Body) > 0 && string(e.Body) != "null" {
		fmt.Fprintf(cc.Out, "Body:     %s\n", e.Body)
	}

	if len(e.Metadata) > 0 && string(e.Metadata) != "null" {
		fmt.Fprintf(cc.Out, "Metadata: %s\n", e.Metadata)
	}

	return nil
}

// printOutcome reports a boolean mutation result. A false result is an error.
func printOutcome(cc *CLIContext, ok bool, format string, args ...any) error {
	if cc.Flags.JSON {
		return printJSON(cc.Out, map[string]bool{"ok": ok})
	}

	if !ok {
		return errors.New("server reported no change")
	}

	cc.Statusf(format, args...)

	return nil
}
