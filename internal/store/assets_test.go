package store

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestGetAssets_DropsMissingIDs(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.CreateProject(ctx, testProject("prj-1", now)); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-1", "prj-1", []byte("one")), now); err != nil {
		t.Fatalf("upsert ast-1: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-2", "prj-1", []byte("two")), now); err != nil {
		t.Fatalf("upsert ast-2: %v", err)
	}

	assets, err := st.GetAssets(ctx, []string{"ast-1", "ast-missing", "ast-2"})
	if err != nil {
		t.Fatalf("get assets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}

	assets, err = st.GetAssets(ctx, nil)
	if err != nil {
		t.Fatalf("get assets with no ids: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("expected empty result for no ids, got %d", len(assets))
	}
}

func TestUpsertAsset_ReplacesExistingRow(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.CreateProject(ctx, testProject("prj-1", now)); err != nil {
		t.Fatalf("create project: %v", err)
	}
	asset := testAsset("ast-1", "prj-1", []byte("v1"))
	if err := st.UpsertAsset(ctx, asset, now); err != nil {
		t.Fatalf("upsert v1: %v", err)
	}
	asset.Content = []byte("v2")
	if err := st.UpsertAsset(ctx, asset, now); err != nil {
		t.Fatalf("upsert v2: %v", err)
	}

	got, err := st.GetAsset(ctx, "ast-1")
	if err != nil || got == nil {
		t.Fatalf("get asset: %+v, %v", got, err)
	}
	if !bytes.Equal(got.Content, []byte("v2")) {
		t.Errorf("content = %q, want v2", got.Content)
	}
}

func TestListAssetsByProject_ExcludesGlobalAssets(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.CreateProject(ctx, testProject("prj-1", now)); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-proj", "prj-1", []byte("p")), now); err != nil {
		t.Fatalf("upsert project asset: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-glob", "", []byte("g")), now); err != nil {
		t.Fatalf("upsert global asset: %v", err)
	}

	assets, err := st.ListAssetsByProject(ctx, "prj-1")
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != "ast-proj" {
		t.Errorf("expected only ast-proj, got %+v", assets)
	}
}

func TestProjectAssetUsage_OrderedBySizeDesc(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"prj-small", "prj-big"} {
		if err := st.CreateProject(ctx, testProject(id, now)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-s", "prj-small", []byte("xx")), now); err != nil {
		t.Fatalf("upsert small: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-b1", "prj-big", bytes.Repeat([]byte("y"), 100)), now); err != nil {
		t.Fatalf("upsert big 1: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-b2", "prj-big", bytes.Repeat([]byte("z"), 50)), now); err != nil {
		t.Fatalf("upsert big 2: %v", err)
	}
	if err := st.UpsertAsset(ctx, testAsset("ast-g", "", []byte("global ignored")), now); err != nil {
		t.Fatalf("upsert global: %v", err)
	}

	usage, err := st.ProjectAssetUsage(ctx)
	if err != nil {
		t.Fatalf("asset usage: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(usage))
	}
	if usage[0].ProjectID != "prj-big" || usage[0].TotalBytes != 150 || usage[0].AssetCount != 2 {
		t.Errorf("usage[0] = %+v, want prj-big/150/2", usage[0])
	}
	if usage[1].ProjectID != "prj-small" || usage[1].TotalBytes != 2 {
		t.Errorf("usage[1] = %+v, want prj-small/2", usage[1])
	}
}
