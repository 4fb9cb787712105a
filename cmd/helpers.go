package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/apex/log"

	"github.com/clinistats/metaprop/internal/dataset"
	"github.com/clinistats/metaprop/internal/meta"
	"github.com/clinistats/metaprop/internal/plot"
	"github.com/clinistats/metaprop/internal/report"
)

func loadDataset(path string) (*dataset.Dataset, error) {
	opt := dataset.DefaultOptions()
	switch flagDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", flagDelimiter)
	}
	opt.SheetName = flagSheetName
	opt.SheetIndex = flagSheetIndex
	d, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	log.Debugf("loaded %d studies from %s", len(d.Studies), d.Name)
	return d, nil
}

func poolOptions() (meta.Options, error) {
	tr, err := meta.ParseTransform(cfg.Transform)
	if err != nil {
		return meta.Options{}, err
	}
	return meta.Options{Transform: tr, Level: cfg.CILevel}, nil
}

func plotOptions() plot.Options {
	return plot.Options{Width: cfg.PlotWidth, Height: cfg.PlotHeight}
}

func goshOptions() meta.GoshOptions {
	return meta.GoshOptions{
		Subsets:      cfg.GoshSubsets,
		Seed:         cfg.GoshSeed,
		KMeansK:      cfg.KMeansK,
		DBSCANEps:    cfg.DBSCANEps,
		DBSCANMinPts: cfg.DBSCANMinPts,
	}
}

func reportWriter() report.Writer {
	if cfg.MarkdownTables {
		return report.Writer{Mode: report.Markdown}
	}
	return report.Writer{Mode: report.ASCII}
}

// selectedCategories resolves the --category flag.
func selectedCategories() ([]dataset.Category, error) {
	if flagCategory == "" || flagCategory == "all" {
		return dataset.Categories(), nil
	}
	c, err := dataset.ParseCategory(flagCategory)
	if err != nil {
		return nil, err
	}
	return []dataset.Category{c}, nil
}

func outPath(name string) string {
	return filepath.Join(cfg.OutputDir, name)
}
